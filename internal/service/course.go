package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	"github.com/aulaweb/aula-admin/internal/domain/model"
	"github.com/aulaweb/aula-admin/internal/normalize"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// Sources tried, in order, when listing an instructor's courses.
const (
	SourceMine     = "mis"
	SourceAssigned = "asignados"
	SourceByTutor  = "profesor"
)

// CourseServiceOptions groups dependencies for CourseService.
type CourseServiceOptions struct {
	API       ports.RESTClient // Required
	Validator *validation.Validator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// CourseService manages cursos and resolves the courses taught by an instructor.
type CourseService struct {
	res     resource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCourseService constructs a new CourseService.
func NewCourseService(opts CourseServiceOptions) *CourseService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseService{
		res:     newResource(opts.API, opts.Validator, "cursos"),
		metrics: opts.Metrics,
		logger:  logger.With("component", "courses"),
	}
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	raw, err := s.res.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	return normalize.CourseList(raw), nil
}

// Get returns one course. The requested id stands in when the payload omits it.
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	raw, err := s.res.get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, ok := normalize.CourseOne(raw, id)
	if !ok {
		return nil, fmt.Errorf("get course %s: %w", id, errMalformedCourse)
	}
	return &c, nil
}

var errMalformedCourse = errors.New("course response is not an object")

// Create adds a course. The result is nil when the backend does not echo the record.
func (s *CourseService) Create(ctx context.Context, req model.CourseRequest) (*model.Course, error) {
	trimCourse(&req)
	raw, err := s.res.create(ctx, req)
	if err != nil {
		return nil, err
	}
	if c, ok := normalize.CourseOne(raw, ""); ok {
		return &c, nil
	}
	return nil, nil
}

// Update edits a course.
func (s *CourseService) Update(ctx context.Context, id string, req model.CourseRequest) (*model.Course, error) {
	trimCourse(&req)
	raw, err := s.res.update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if c, ok := normalize.CourseOne(raw, id); ok {
		return &c, nil
	}
	return nil, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	return s.res.delete(ctx, id)
}

func trimCourse(req *model.CourseRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.TutorID = strings.TrimSpace(req.TutorID)
	req.SubjectIDs = compactIDs(req.SubjectIDs)
	req.StudentIDs = compactIDs(req.StudentIDs)
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type courseSource struct {
	name  string
	path  string
	query url.Values
}

// instructorSources lists the endpoints that may know an instructor's courses. The
// id-based ones are only tried when the instructor id is known.
func instructorSources(instructorID string) []courseSource {
	sources := []courseSource{{name: SourceMine, path: "cursos/mis"}}
	if instructorID == "" {
		return sources
	}
	return append(sources,
		courseSource{name: SourceAssigned, path: "cursos/asignados/" + url.PathEscape(instructorID)},
		courseSource{name: SourceByTutor, path: "cursos", query: url.Values{"profesorId": {instructorID}}},
	)
}

// MyCourses returns the courses taught by the signed-in instructor. Sources are tried in
// order and the first successful answer wins, even when it is empty. When every source
// fails the failures are logged and an empty list is returned. A 401 ends the chain and
// is returned because the session has already been cleared, as does a done ctx.
func (s *CourseService) MyCourses(ctx context.Context, instructorID string) ([]model.Course, error) {
	instructorID = strings.TrimSpace(instructorID)

	var errs []error
	for _, src := range instructorSources(instructorID) {
		raw, err := s.res.api.Get(ctx, src.path, src.query)
		if err != nil {
			s.metrics.ObserveCourseSource(src.name, metrics.ResultError)
			if apiclient.IsUnauthorized(err) {
				return nil, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			errs = append(errs, fmt.Errorf("%s: %w", src.path, err))
			continue
		}

		courses := normalize.CourseList(raw)
		result := metrics.ResultSuccess
		if len(courses) == 0 {
			result = metrics.ResultEmpty
		}
		s.metrics.ObserveCourseSource(src.name, result)
		return courses, nil
	}

	s.logger.ErrorContext(ctx, "all instructor course sources failed",
		"instructor_id", instructorID,
		"attempts", len(errs),
		"error", errors.Join(errs...))
	return []model.Course{}, nil
}
