package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/mocks"
)

func gradeCourse() model.Course {
	return model.Course{
		ID:       "c1",
		Name:     "Primero A",
		Subjects: []model.Subject{{ID: "m1", Name: "Matemática"}, {ID: "m2", Name: "Lengua"}},
		Students: []model.Student{{ID: "e1", Name: "Ana"}},
	}
}

func newGradeService(t *testing.T) (*mocks.MockRESTClient, *GradeService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockRESTClient(ctrl)
	return api, NewGradeService(GradeServiceOptions{API: api})
}

func TestGradeService_BuildEntries(t *testing.T) {
	_, svc := newGradeService(t)

	entries, err := svc.BuildEntries(gradeCourse(), "e1", map[string]string{
		"m2": "15,5",
		"m1": " 18 ",
		"m9": "10",
		"":   "12",
	})
	require.NoError(t, err)
	assert.Equal(t, []model.GradeEntry{
		{StudentID: "e1", SubjectID: "m1", Value: 18},
		{StudentID: "e1", SubjectID: "m2", Value: 15.5},
	}, entries)

	entries, err = svc.BuildEntries(gradeCourse(), "e1", map[string]string{"m1": ""})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.BuildEntries(gradeCourse(), "e1", map[string]string{"m1": "diez"})
	require.Error(t, err)
	assert.Equal(t, "m1", apperrors.GetField(err))

	_, err = svc.BuildEntries(gradeCourse(), "", nil)
	assert.Equal(t, MsgSelectStudent, NoticeMessage(err))

	_, err = svc.BuildEntries(gradeCourse(), "e7", nil)
	assert.Equal(t, MsgSelectStudent, NoticeMessage(err))
}

func TestGradeService_SubmitValidatesBeforeCalling(t *testing.T) {
	_, svc := newGradeService(t)
	ctx := context.Background()
	ok := model.GradeEntry{StudentID: "e1", SubjectID: "m1", Value: 12}

	tests := []struct {
		name     string
		courseID string
		entries  []model.GradeEntry
		want     string
	}{
		{name: "missing course", courseID: "", entries: []model.GradeEntry{ok}, want: MsgSelectCourse},
		{name: "no entries", courseID: "c1", entries: nil, want: MsgNoGrades},
		{name: "missing student", courseID: "c1", entries: []model.GradeEntry{{SubjectID: "m1", Value: 10}}, want: MsgSelectStudent},
		{name: "above range", courseID: "c1", entries: []model.GradeEntry{{StudentID: "e1", SubjectID: "m1", Value: 21}}, want: "Las notas deben estar entre 0 y 20."},
		{name: "below range", courseID: "c1", entries: []model.GradeEntry{{StudentID: "e1", SubjectID: "m1", Value: -1}}, want: "Las notas deben estar entre 0 y 20."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SubmitCourseGrades(ctx, tt.courseID, tt.entries)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.want, NoticeMessage(err))
		})
	}
}

func TestGradeService_Submit(t *testing.T) {
	api, svc := newGradeService(t)
	entries := []model.GradeEntry{{StudentID: "e1", SubjectID: "m1", Value: 20}, {StudentID: "e1", SubjectID: "m2", Value: 0}}

	api.EXPECT().
		Send(gomock.Any(), http.MethodPut, "calificaciones/curso/c1", model.GradeSubmission{Entries: entries}).
		Return(map[string]any{"msg": "ok"}, nil)

	require.NoError(t, svc.SubmitCourseGrades(context.Background(), "c1", entries))
}
