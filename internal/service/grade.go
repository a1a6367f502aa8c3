package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// Grade entry messages.
const (
	MsgSelectStudent = "Selecciona un estudiante válido."
	MsgNoGrades      = "Ingresa al menos una nota."
	MsgSelectCourse  = "Selecciona un curso válido."
)

// GradeServiceOptions groups dependencies for GradeService.
type GradeServiceOptions struct {
	API       ports.RESTClient // Required
	Validator *validation.Validator
	Logger    *slog.Logger
}

// GradeService turns grade forms into entries and submits them per course.
type GradeService struct {
	api       ports.RESTClient
	validator *validation.Validator
	logger    *slog.Logger
}

// NewGradeService constructs a new GradeService.
func NewGradeService(opts GradeServiceOptions) *GradeService {
	if opts.API == nil {
		panic("GradeService requires a REST client")
	}
	if opts.Validator == nil {
		opts.Validator = validation.MustNew()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &GradeService{api: opts.API, validator: opts.Validator, logger: opts.Logger.With("component", "grades")}
}

// BuildEntries converts a subject→value form for one student into grade entries.
// Blank cells are skipped, as are subjects the course does not have. A value that is
// not a number fails the whole form.
func (s *GradeService) BuildEntries(course model.Course, studentID string, values map[string]string) ([]model.GradeEntry, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, apperrors.ValidationField("estudianteId", MsgSelectStudent)
	}
	if _, ok := course.StudentByID(studentID); !ok && len(course.Students) > 0 {
		return nil, apperrors.ValidationField("estudianteId", MsgSelectStudent)
	}

	subjectIDs := make([]string, 0, len(values))
	for id := range values {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Strings(subjectIDs)

	entries := make([]model.GradeEntry, 0, len(subjectIDs))
	for _, subjectID := range subjectIDs {
		raw := strings.TrimSpace(values[subjectID])
		if raw == "" || strings.TrimSpace(subjectID) == "" {
			continue
		}
		subj, ok := course.SubjectByID(subjectID)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return nil, apperrors.ValidationField(subjectID,
				fmt.Sprintf("La nota de %s debe ser un número.", subj.Name))
		}
		entries = append(entries, model.GradeEntry{StudentID: studentID, SubjectID: subjectID, Value: v})
	}
	return entries, nil
}

// SubmitCourseGrades validates the entries and replaces them in bulk for the course.
// Validation failures never reach the backend.
func (s *GradeService) SubmitCourseGrades(ctx context.Context, courseID string, entries []model.GradeEntry) error {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return apperrors.ValidationField("cursoId", MsgSelectCourse)
	}
	if len(entries) == 0 {
		return apperrors.ValidationField("notas", MsgNoGrades)
	}
	for _, e := range entries {
		if strings.TrimSpace(e.StudentID) == "" {
			return apperrors.ValidationField("estudianteId", MsgSelectStudent)
		}
		if e.Value < model.MinGrade || e.Value > model.MaxGrade {
			return apperrors.ValidationField(e.SubjectID,
				fmt.Sprintf("Las notas deben estar entre %d y %d.", model.MinGrade, model.MaxGrade))
		}
	}
	submission := model.GradeSubmission{Entries: entries}
	if err := s.validator.Struct(submission); err != nil {
		return err
	}

	path := "calificaciones/curso/" + url.PathEscape(courseID)
	if _, err := s.api.Send(ctx, http.MethodPut, path, submission); err != nil {
		return fmt.Errorf("submit grades: %w", err)
	}
	s.logger.InfoContext(ctx, "grades submitted", "course_id", courseID, "entries", len(entries))
	return nil
}
