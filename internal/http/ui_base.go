package httpx

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	obserrors "github.com/aulaweb/aula-admin/internal/observability/errors"
	"github.com/aulaweb/aula-admin/internal/service"
)

// CoursesService is a minimal interface for the course screens.
type CoursesService interface {
	List(ctx context.Context) ([]model.Course, error)
	Get(ctx context.Context, id string) (*model.Course, error)
	Create(ctx context.Context, req model.CourseRequest) (*model.Course, error)
	Update(ctx context.Context, id string, req model.CourseRequest) (*model.Course, error)
	Delete(ctx context.Context, id string) error
	MyCourses(ctx context.Context, instructorID string) ([]model.Course, error)
}

// SubjectsService is a minimal interface for the subject catalog screen.
type SubjectsService interface {
	List(ctx context.Context) ([]model.Subject, error)
	Create(ctx context.Context, req model.SubjectRequest) (*model.Subject, error)
	Update(ctx context.Context, id string, req model.SubjectRequest) (*model.Subject, error)
	Delete(ctx context.Context, id string) error
}

// StudentsService is a minimal interface for the student catalog screen.
type StudentsService interface {
	List(ctx context.Context) ([]model.Student, error)
	Search(ctx context.Context, nationalID, name string) ([]model.Student, error)
	Create(ctx context.Context, req model.StudentRequest) (*model.Student, error)
	Update(ctx context.Context, id string, req model.StudentRequest) (*model.Student, error)
	Delete(ctx context.Context, id string) error
}

// UsersService is a minimal interface for user management.
type UsersService interface {
	List(ctx context.Context) ([]model.User, error)
	Instructors(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, req model.UserRequest) (*model.User, error)
	Update(ctx context.Context, id string, req model.UserRequest) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

// GradesService exposes grade entry to the UI.
type GradesService interface {
	BuildEntries(course model.Course, studentID string, values map[string]string) ([]model.GradeEntry, error)
	SubmitCourseGrades(ctx context.Context, courseID string, entries []model.GradeEntry) error
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ CoursesService  = (*service.CourseService)(nil)
	_ SubjectsService = (*service.SubjectService)(nil)
	_ StudentsService = (*service.StudentService)(nil)
	_ UsersService    = (*service.UserService)(nil)
	_ GradesService   = (*service.GradeService)(nil)
)

// UIHandlers serves the signed-in screens.
type UIHandlers struct {
	T        *TemplateRenderer
	Courses  CoursesService
	Subjects SubjectsService
	Students StudentsService
	Users    UsersService
	Grades   GradesService
	Logger   *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders. A fetch that
// ended the session redirects to the login page instead.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			if sessionEnded(r, err) {
				redirectToLogin(w, r)
				return
			}
			h.logger().WarnContext(r.Context(), "page fetch failed",
				slog.String("page", spec.Meta.CurrentPage),
				slog.String("error_class", obserrors.Classify(err)),
				slog.Any("error", err))
			markPageError(data, err)
		}
	}
	h.render(w, r, data)
}

// render writes the full layout, or for htmx swaps the content plus an out-of-band title.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	renderPage(w, r, h.T, data, h.logger())
}

func renderPage(w http.ResponseWriter, r *http.Request, t *TemplateRenderer, data map[string]any, logger *slog.Logger) {
	if t == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	if !WantsPartial(r) {
		if err := t.RenderFull(w, r, data); err != nil {
			logger.ErrorContext(r.Context(), "full page render failed", slog.Any("error", err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	title, _ := data["Title"].(string)
	pageTitle, _ := data["PageTitle"].(string)
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(title) + `</title>` +
		`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` + html.EscapeString(pageTitle) + `</h1>`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write partial header", slog.Any("error", err))
		return
	}
	if err := t.RenderPartial(w, r, data); err != nil {
		logger.ErrorContext(r.Context(), "partial content render failed", slog.Any("error", err))
	}
}

func markPageError(data map[string]any, err error) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = service.NoticeMessage(err)
}

// sessionEnded reports whether err (or the gateway, via Navigation) signed the user out.
func sessionEnded(r *http.Request, err error) bool {
	if apiclient.IsUnauthorized(err) {
		return true
	}
	return NavigationFromContext(r.Context()).Target() == service.PathLogin
}

// fieldErrors extracts the per-field message from a validation error.
func fieldErrors(err error) map[string]string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrCodeValidation || appErr.Field == "" {
		return nil
	}
	return map[string]string{appErr.Field: appErr.Message}
}

// afterWrite finishes a successful form post by sending the browser to target with a flash key.
func afterWrite(w http.ResponseWriter, r *http.Request, target, flash string) {
	if flash != "" {
		target += "?ok=" + flash
	}
	Redirect(w, r, target)
}
