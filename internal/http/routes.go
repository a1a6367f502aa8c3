package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	aula "github.com/aulaweb/aula-admin"
	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/service"
)

// AuthService is everything the router needs from the auth gateway.
type AuthService interface {
	AuthGateway
	SessionReader
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthService
	Courses  CoursesService
	Subjects SubjectsService
	Students StudentsService
	Users    UsersService
	Grades   GradesService

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Ready backs /healthz; nil means there is nothing to probe.
	Ready ReadyFunc

	Client ClientIdentityConfig
	CSRF   CSRFConfig
	// Templates overrides the template filesystem (tests).
	Templates fs.FS
	IsDev     bool         // Serve templates and static files from disk
	Logger    *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates the HTTP handler: public auth pages, the guarded /app tree, health and metrics.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create template renderer", slog.Any("error", err))
	}

	authHandlers := &AuthHandlers{T: tr, Svc: services.Auth, Logger: logger}
	ui := &UIHandlers{
		T:        tr,
		Courses:  services.Courses,
		Subjects: services.Subjects,
		Students: services.Students,
		Users:    services.Users,
		Grades:   services.Grades,
		Logger:   logger,
	}

	health := healthHandler(services.Ready, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /metrics", metrics.Handler(services.Gatherer))
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	registerAuthRoutes(mux, authHandlers)

	signedIn := RequireAuth(services.Auth, services.Metrics)
	mux.Handle("GET /app", signedIn(http.HandlerFunc(ui.Home)))
	registerAdminRoutes(mux, ui, RequireRole(services.Auth, domainauth.RoleAdmin, services.Metrics))
	registerInstructorRoutes(mux, ui, RequireRole(services.Auth, domainauth.RoleInstructor, services.Metrics))

	// Unmatched paths go to the login page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		Redirect(w, r, service.PathLogin)
	})

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		ClientIdentity(services.Client),
		Navigate(),
		CSRFProtection(services.CSRF),
	)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /recuperar-contrasena", h.RecoverPage)
	mux.HandleFunc("POST /recuperar-contrasena", h.Recover)
	mux.HandleFunc("GET /restablecer-contrasena/{token}", h.ResetPage)
	mux.HandleFunc("POST /restablecer-contrasena/{token}", h.Reset)
	mux.HandleFunc("GET /auth/status", h.Status)
}

// crudRoutes describes the form-driven routes of one admin collection.
type crudRoutes struct {
	Base   string
	List   http.HandlerFunc
	New    http.HandlerFunc
	Show   http.HandlerFunc
	Edit   http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

func registerCRUD(mux *http.ServeMux, guard func(http.Handler) http.Handler, c crudRoutes) {
	handle := func(pattern string, h http.HandlerFunc) {
		if h != nil {
			mux.Handle(pattern, guard(h))
		}
	}
	handle("GET "+c.Base, c.List)
	handle("GET "+c.Base+"/nuevo", c.New)
	handle("GET "+c.Base+"/{id}", c.Show)
	handle("GET "+c.Base+"/{id}/editar", c.Edit)
	handle("POST "+c.Base, c.Create)
	handle("POST "+c.Base+"/{id}", c.Update)
	handle("POST "+c.Base+"/{id}/eliminar", c.Delete)
	handle("DELETE "+c.Base+"/{id}", c.Delete)
}

func registerAdminRoutes(mux *http.ServeMux, ui *UIHandlers, admin func(http.Handler) http.Handler) {
	registerCRUD(mux, admin, crudRoutes{
		Base:   pathUsers,
		List:   ui.Users,
		New:    ui.UserNew,
		Edit:   ui.UserEdit,
		Create: ui.UserCreate,
		Update: ui.UserUpdate,
		Delete: ui.UserDelete,
	})
	registerCRUD(mux, admin, crudRoutes{
		Base:   pathCourses,
		List:   ui.Courses,
		New:    ui.CourseNew,
		Show:   ui.Course,
		Edit:   ui.CourseEdit,
		Create: ui.CourseCreate,
		Update: ui.CourseUpdate,
		Delete: ui.CourseDelete,
	})
	registerCRUD(mux, admin, crudRoutes{
		Base:   pathSubjects,
		List:   ui.Subjects,
		Create: ui.SubjectCreate,
		Update: ui.SubjectUpdate,
		Delete: ui.SubjectDelete,
	})
	registerCRUD(mux, admin, crudRoutes{
		Base:   pathStudents,
		List:   ui.Students,
		Create: ui.StudentCreate,
		Update: ui.StudentUpdate,
		Delete: ui.StudentDelete,
	})
	mux.Handle("GET /app/calificaciones", admin(http.HandlerFunc(ui.Grades)))
	mux.Handle("GET /app/calificaciones/{id}", admin(http.HandlerFunc(ui.GradeEntry)))
	mux.Handle("POST /app/calificaciones/{id}", admin(http.HandlerFunc(ui.GradeSubmit)))
}

func registerInstructorRoutes(mux *http.ServeMux, ui *UIHandlers, instructor func(http.Handler) http.Handler) {
	mux.Handle("GET /app/mis-cursos", instructor(http.HandlerFunc(ui.MyCourses)))
	mux.Handle("GET /app/mis-cursos/{id}/notas", instructor(http.HandlerFunc(ui.GradeEntry)))
	mux.Handle("POST /app/mis-cursos/{id}/notas", instructor(http.HandlerFunc(ui.GradeSubmit)))
}

// templateFS picks the template source: an explicit override, disk in dev mode, or the embedded copy.
func templateFS(services RouterServices) fs.FS {
	if services.Templates != nil {
		return services.Templates
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(aula.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticHandler serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return noCache(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	sub, err := fs.Sub(aula.StaticFS, "frontend/static")
	if err != nil {
		logger.Warn("failed to create sub-filesystem for static assets", slog.Any("error", err))
		return http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static")))
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func noCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.ServeHTTP(w, r)
	})
}
