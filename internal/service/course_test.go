package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/mocks"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/testutil"
)

type courseFixture struct {
	api  *mocks.MockRESTClient
	svc  *CourseService
	reg  *prometheus.Registry
	logs *bytes.Buffer
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &courseFixture{
		api:  mocks.NewMockRESTClient(ctrl),
		reg:  prometheus.NewRegistry(),
		logs: &bytes.Buffer{},
	}
	f.svc = NewCourseService(CourseServiceOptions{
		API:     f.api,
		Metrics: metrics.New(metrics.Options{Registry: f.reg, Namespace: "test"}),
		Logger:  slog.New(slog.NewJSONHandler(f.logs, nil)),
	})
	return f
}

func TestCourseService_List(t *testing.T) {
	f := newCourseFixture(t)
	f.api.EXPECT().Get(gomock.Any(), "cursos", gomock.Nil()).Return(testutil.Wrap("data",
		testutil.NewCourse("c1", "Primero A").WithTutorID("p1").Build(),
		map[string]any{"nombre": "sin id"},
	), nil)

	courses, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, model.TutorRef("p1"), courses[0].Tutor)
}

func TestCourseService_Get(t *testing.T) {
	f := newCourseFixture(t)
	f.api.EXPECT().Get(gomock.Any(), "cursos/c%2F1", gomock.Nil()).
		Return(map[string]any{"curso": map[string]any{"nombre": "Segundo B"}}, nil)

	c, err := f.svc.Get(context.Background(), "c/1")
	require.NoError(t, err)
	assert.Equal(t, "c/1", c.ID)
	assert.Equal(t, "Segundo B", c.Name)
	assert.NotNil(t, c.Subjects)
	assert.NotNil(t, c.Students)
	assert.False(t, c.Tutor.Assigned())
}

func TestCourseService_Get_EmptyID(t *testing.T) {
	f := newCourseFixture(t)
	_, err := f.svc.Get(context.Background(), " ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestCourseService_CreateValidatesAndCompactsIDs(t *testing.T) {
	f := newCourseFixture(t)

	_, err := f.svc.Create(context.Background(), model.CourseRequest{Name: "  "})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "nombre", apperrors.GetField(err))

	want := model.CourseRequest{Name: "Tercero C", TutorID: "p1", SubjectIDs: []string{"m1", "m2"}, StudentIDs: []string{}}
	f.api.EXPECT().Send(gomock.Any(), http.MethodPost, "cursos", want).
		Return(map[string]any{"curso": testutil.NewCourse("c9", "Tercero C").Build()}, nil)

	created, err := f.svc.Create(context.Background(), model.CourseRequest{
		Name:       " Tercero C ",
		TutorID:    " p1",
		SubjectIDs: []string{"m1", "", "m2", "m1"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "c9", created.ID)
}

func TestCourseService_UpdateAndDelete(t *testing.T) {
	f := newCourseFixture(t)
	f.api.EXPECT().Send(gomock.Any(), http.MethodPut, "cursos/c1", gomock.Any()).Return(nil, nil)
	f.api.EXPECT().Send(gomock.Any(), http.MethodDelete, "cursos/c1", nil).
		Return(nil, &apiclient.APIError{Status: http.StatusConflict, Message: "Curso con notas"})

	updated, err := f.svc.Update(context.Background(), "c1", model.CourseRequest{Name: "Nuevo"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	err = f.svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiclient.Status(err))
	assert.Equal(t, "Curso con notas", NoticeMessage(err))
}

func TestCourseService_MyCourses(t *testing.T) {
	mine := testutil.Wrap("cursos", testutil.NewCourse("c1", "Primero A").Build())
	fail := &apiclient.APIError{Status: http.StatusNotFound}

	t.Run("first source wins", func(t *testing.T) {
		f := newCourseFixture(t)
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).Return(mine, nil)

		courses, err := f.svc.MyCourses(context.Background(), "p1")
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "c1", courses[0].ID)
	})

	t.Run("empty answer still wins", func(t *testing.T) {
		f := newCourseFixture(t)
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).Return([]any{}, nil)

		courses, err := f.svc.MyCourses(context.Background(), "p1")
		require.NoError(t, err)
		assert.Empty(t, courses)
		assert.Equal(t, 1, promtestCount(t, f.reg))
	})

	t.Run("falls back in order", func(t *testing.T) {
		f := newCourseFixture(t)
		gomock.InOrder(
			f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).Return(nil, fail),
			f.api.EXPECT().Get(gomock.Any(), "cursos/asignados/p1", gomock.Nil()).Return(nil, apiclient.ErrUnreachable),
			f.api.EXPECT().Get(gomock.Any(), "cursos", url.Values{"profesorId": {"p1"}}).Return(mine, nil),
		)

		courses, err := f.svc.MyCourses(context.Background(), "p1")
		require.NoError(t, err)
		require.Len(t, courses, 1)
	})

	t.Run("unknown instructor only tries own endpoint", func(t *testing.T) {
		f := newCourseFixture(t)
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).Return(nil, fail)

		courses, err := f.svc.MyCourses(context.Background(), " ")
		require.NoError(t, err)
		assert.NotNil(t, courses)
		assert.Empty(t, courses)
	})

	t.Run("total failure yields empty list and logs", func(t *testing.T) {
		f := newCourseFixture(t)
		f.api.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, fail).Times(3)

		courses, err := f.svc.MyCourses(context.Background(), "p1")
		require.NoError(t, err)
		assert.NotNil(t, courses)
		assert.Empty(t, courses)
		assert.Contains(t, f.logs.String(), "all instructor course sources failed")
		assert.Contains(t, f.logs.String(), "cursos/asignados/p1")
		assert.Equal(t, 3, promtestCount(t, f.reg))
	})

	t.Run("401 short-circuits", func(t *testing.T) {
		f := newCourseFixture(t)
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).
			Return(nil, &apiclient.APIError{Status: http.StatusUnauthorized})

		courses, err := f.svc.MyCourses(context.Background(), "p1")
		require.Error(t, err)
		assert.True(t, apiclient.IsUnauthorized(err))
		assert.Nil(t, courses)
	})

	t.Run("canceled context stops the chain", func(t *testing.T) {
		f := newCourseFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).
			DoAndReturn(func(context.Context, string, url.Values) (any, error) {
				cancel()
				return nil, errors.New("request canceled")
			})

		_, err := f.svc.MyCourses(ctx, "p1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// promtestCount returns how many source/result series were recorded.
func promtestCount(t *testing.T, reg *prometheus.Registry) int {
	t.Helper()
	n, err := promtest.GatherAndCount(reg, "test_courses_instructor_source_total")
	require.NoError(t, err)
	return n
}
