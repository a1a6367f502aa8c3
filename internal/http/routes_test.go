package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aulaweb/aula-admin/internal/apiclient"
	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/domain/model"
	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/mocks"
	"github.com/aulaweb/aula-admin/internal/service"
	"github.com/aulaweb/aula-admin/internal/testutil"
	"github.com/aulaweb/aula-admin/internal/validation"
)

const testCSRF = "test-csrf-token"

type routerFixture struct {
	api  *mocks.MockRESTClient
	auth *fakeAuth
	h    http.Handler
}

func newRouterFixture(t *testing.T, auth *fakeAuth) *routerFixture {
	t.Helper()
	RequireTemplateRenderer(t)

	api := mocks.NewMockRESTClient(gomock.NewController(t))
	v := validation.MustNew()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := service.CatalogServiceOptions{API: api, Validator: v}

	return &routerFixture{
		api:  api,
		auth: auth,
		h: NewRouter(RouterServices{
			Auth:      auth,
			Courses:   service.NewCourseService(service.CourseServiceOptions{API: api, Validator: v, Logger: logger}),
			Subjects:  service.NewSubjectService(catalog),
			Students:  service.NewStudentService(catalog),
			Users:     service.NewUserService(catalog),
			Grades:    service.NewGradeService(service.GradeServiceOptions{API: api, Validator: v, Logger: logger}),
			Gatherer:  prometheus.NewRegistry(),
			Templates: os.DirFS(TemplatePathFromTest),
			Logger:    logger,
		}),
	}
}

func (f *routerFixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *routerFixture) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFFormField, testCSRF)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRF})
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicSurface(t *testing.T) {
	f := newRouterFixture(t, &fakeAuth{})

	t.Run("unmatched paths go to login", func(t *testing.T) {
		for _, p := range []string{"/", "/no-existe", "/favicon.ico"} {
			rec := f.get(p)
			assert.Equal(t, http.StatusSeeOther, rec.Code, p)
			assert.Equal(t, "/login", rec.Header().Get("Location"), p)
		}
	})

	t.Run("protected views require a session", func(t *testing.T) {
		rec := f.get("/app/cursos")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?returnUrl=%2Fapp%2Fcursos", rec.Header().Get("Location"))

		rec = f.get("/app")
		assert.Equal(t, "/login?returnUrl=%2Fapp", rec.Header().Get("Location"))
	})

	t.Run("health and metrics", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.get("/healthz").Code)
		assert.Equal(t, http.StatusOK, f.get("/metrics").Code)
	})

	t.Run("login page renders the return path", func(t *testing.T) {
		rec := f.get("/login?returnUrl=%2Fapp%2Fmaterias")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `name="returnUrl" value="/app/materias"`)
		assert.Contains(t, body, `name="csrf_token"`)
	})

	t.Run("writes need the csrf token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("correo=a%40b.c&clave=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRouter_Login(t *testing.T) {
	t.Run("success follows the gateway's navigation", func(t *testing.T) {
		f := newRouterFixture(t, &fakeAuth{})
		rec := f.post("/login", url.Values{"correo": {"ana@aula.test"}, "clave": {"secreto"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, service.PathAdminHome, rec.Header().Get("Location"))
	})

	t.Run("return path is forwarded and open redirects dropped", func(t *testing.T) {
		var got []string
		auth := &fakeAuth{loginFn: func(_ context.Context, _ domainauth.Credentials, returnURL string) (*service.LoginResult, error) {
			got = append(got, returnURL)
			return &service.LoginResult{Landing: service.PathApp}, nil
		}}
		f := newRouterFixture(t, auth)
		f.post("/login", url.Values{"correo": {"a@b.c"}, "clave": {"x"}, "returnUrl": {"/app/cursos"}})
		f.post("/login", url.Values{"correo": {"a@b.c"}, "clave": {"x"}, "returnUrl": {"https://evil.test/"}})
		assert.Equal(t, []string{"/app/cursos", ""}, got)
	})

	t.Run("failure shows the backend message and keeps the email", func(t *testing.T) {
		auth := &fakeAuth{loginFn: func(context.Context, domainauth.Credentials, string) (*service.LoginResult, error) {
			return nil, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Usuario bloqueado"}
		}}
		f := newRouterFixture(t, auth)
		rec := f.post("/login", url.Values{"correo": {" ana@aula.test "}, "clave": {"mala"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Usuario bloqueado")
		assert.Contains(t, rec.Body.String(), `value="ana@aula.test"`)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		auth := &fakeAuth{loginFn: func(context.Context, domainauth.Credentials, string) (*service.LoginResult, error) {
			return nil, apiclient.ErrUnreachable
		}}
		f := newRouterFixture(t, auth)
		rec := f.post("/login", url.Values{"correo": {"a@b.c"}, "clave": {"x"}})
		assert.Contains(t, rec.Body.String(), "No se pudo contactar al servidor")
	})
}

func TestRouter_LogoutAndStatus(t *testing.T) {
	auth := signedInAs("a1", domainauth.RoleAdmin)
	f := newRouterFixture(t, auth)

	rec := f.get("/auth/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "authenticated_with_profile", body["state"])

	rec = f.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, service.PathLogin, rec.Header().Get("Location"))
	assert.Equal(t, 1, auth.logoutCalls)

	rec = f.get("/auth/status")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
}

func TestRouter_PasswordReset(t *testing.T) {
	t.Run("confirmation mismatch never calls the backend", func(t *testing.T) {
		called := false
		auth := &fakeAuth{resetFn: func(context.Context, string, string) (*service.ResetResult, error) {
			called = true
			return nil, nil
		}}
		f := newRouterFixture(t, auth)
		rec := f.post("/restablecer-contrasena/abc", url.Values{"clave": {"nueva123"}, "confirmar": {"otra123"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), msgPasswordMismatch)
		assert.False(t, called)
	})

	t.Run("reset without session token returns to login", func(t *testing.T) {
		var token string
		auth := &fakeAuth{resetFn: func(_ context.Context, tok, _ string) (*service.ResetResult, error) {
			token = tok
			return &service.ResetResult{Landing: service.PathLogin}, nil
		}}
		f := newRouterFixture(t, auth)
		rec := f.post("/restablecer-contrasena/abc", url.Values{"clave": {"nueva123"}, "confirmar": {"nueva123"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?ok=clave", rec.Header().Get("Location"))
		assert.Equal(t, "abc", token)
	})

	t.Run("reset that signs in goes to the landing page", func(t *testing.T) {
		auth := &fakeAuth{resetFn: func(context.Context, string, string) (*service.ResetResult, error) {
			return &service.ResetResult{SignedIn: true, Landing: service.PathInstructorHome}, nil
		}}
		f := newRouterFixture(t, auth)
		rec := f.post("/restablecer-contrasena/abc", url.Values{"clave": {"nueva123"}, "confirmar": {"nueva123"}})
		assert.Equal(t, service.PathInstructorHome, rec.Header().Get("Location"))
	})

	t.Run("recover shows the confirmation", func(t *testing.T) {
		f := newRouterFixture(t, &fakeAuth{})
		rec := f.post("/recuperar-contrasena", url.Values{"correo": {"ana@aula.test"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), service.MsgRecoverSent)
	})
}

func TestRouter_RoleBranches(t *testing.T) {
	t.Run("instructor cannot open admin views", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		rec := f.get("/app/usuarios")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?returnUrl=%2Fapp%2Fusuarios", rec.Header().Get("Location"))
	})

	t.Run("admin cannot open instructor views", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		rec := f.get("/app/mis-cursos")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("generic landing sends known roles on", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.Role("PROFESOR")))
		rec := f.get("/app")
		assert.Equal(t, service.PathInstructorHome, rec.Header().Get("Location"))
	})

	t.Run("unknown role stays on the generic landing", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("x1", domainauth.Role("secretaria")))
		rec := f.get("/app")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Tu cuenta no tiene una sección asignada")
	})
}

func TestRouter_AdminCatalog(t *testing.T) {
	t.Run("subjects list", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Get(gomock.Any(), "materias", gomock.Nil()).
			Return(testutil.Wrap("materias", map[string]any{"_id": "m1", "nombre": "Química"}), nil)

		rec := f.get("/app/materias")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Química")
		assert.Contains(t, rec.Body.String(), "Usuario a1")
	})

	t.Run("htmx navigation returns only the fragment", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Get(gomock.Any(), "materias", gomock.Nil()).Return([]any{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/app/materias", nil)
		req.Header.Set("Hx-Request", "true")
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "<html")
		assert.Contains(t, rec.Body.String(), `hx-swap-oob="outerHTML"`)
		assert.Contains(t, rec.Body.String(), "No hay materias registradas.")
	})

	t.Run("invalid subject is re-rendered without a backend call", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Get(gomock.Any(), "materias", gomock.Nil()).Return([]any{}, nil)

		rec := f.post("/app/materias", url.Values{"nombre": {"  "}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "notice-error")
	})

	t.Run("create redirects with a flash", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Send(gomock.Any(), http.MethodPost, "materias", model.SubjectRequest{Name: "Física"}).
			Return(map[string]any{"materia": map[string]any{"_id": "m2", "nombre": "Física"}}, nil)

		rec := f.post("/app/materias", url.Values{"nombre": {"Física"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/app/materias?ok=creado", rec.Header().Get("Location"))
	})

	t.Run("delete conflict shows the backend message", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Send(gomock.Any(), http.MethodDelete, "cursos/c1", nil).
			Return(nil, &apiclient.APIError{Status: http.StatusConflict, Message: "Curso con notas"})
		f.api.EXPECT().Get(gomock.Any(), "cursos", gomock.Nil()).Return([]any{}, nil)

		rec := f.post("/app/cursos/c1/eliminar", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Curso con notas")
	})

	t.Run("401 from the backend sends the user to login", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("a1", domainauth.RoleAdmin))
		f.api.EXPECT().Get(gomock.Any(), "estudiantes", gomock.Nil()).
			Return(nil, &apiclient.APIError{Status: http.StatusUnauthorized})

		rec := f.get("/app/estudiantes")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?returnUrl=%2Fapp%2Festudiantes", rec.Header().Get("Location"))
	})
}

func gradeCourse() map[string]any {
	return testutil.NewCourse("c1", "Primero A").
		WithSubject("m1", "Matemática").
		WithSubject("m2", "Lengua").
		WithStudent("s1", "Ana", "Pérez", "1234567").
		Build()
}

func TestRouter_InstructorGrades(t *testing.T) {
	t.Run("my courses", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), "cursos/mis", gomock.Nil()).
			Return(testutil.Wrap("cursos", gradeCourse()), nil)

		rec := f.get("/app/mis-cursos")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/app/mis-cursos/c1/notas"`)
	})

	t.Run("my courses falls back to an empty list", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &apiclient.APIError{Status: http.StatusInternalServerError}).Times(3)

		rec := f.get("/app/mis-cursos")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No tienes cursos asignados.")
		assert.NotContains(t, rec.Body.String(), "notice-error")
	})

	t.Run("grade sheet", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), "cursos/c1", gomock.Nil()).Return(gradeCourse(), nil)

		rec := f.get("/app/mis-cursos/c1/notas?estudiante=s1")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `name="nota_m1"`)
		assert.Contains(t, body, `<option value="s1" selected>`)
	})

	t.Run("submit sends the entries in bulk", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), "cursos/c1", gomock.Nil()).Return(gradeCourse(), nil)
		f.api.EXPECT().Send(gomock.Any(), http.MethodPut, "calificaciones/curso/c1", model.GradeSubmission{
			Entries: []model.GradeEntry{{StudentID: "s1", SubjectID: "m1", Value: 15.5}},
		}).Return(map[string]any{"success": true}, nil)

		rec := f.post("/app/mis-cursos/c1/notas", url.Values{
			"estudianteId": {"s1"},
			"nota_m1":      {"15,5"},
			"nota_m2":      {""},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/app/mis-cursos/c1/notas?ok=notas", rec.Header().Get("Location"))
	})

	t.Run("out of range grade is caught locally", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), "cursos/c1", gomock.Nil()).Return(gradeCourse(), nil).Times(2)

		rec := f.post("/app/mis-cursos/c1/notas", url.Values{"estudianteId": {"s1"}, "nota_m1": {"21"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Las notas deben estar entre 0 y 20.")
		assert.Contains(t, rec.Body.String(), `value="21"`)
	})

	t.Run("missing student is caught locally", func(t *testing.T) {
		f := newRouterFixture(t, signedInAs("p1", domainauth.RoleInstructor))
		f.api.EXPECT().Get(gomock.Any(), "cursos/c1", gomock.Nil()).Return(gradeCourse(), nil).Times(2)

		rec := f.post("/app/mis-cursos/c1/notas", url.Values{"nota_m1": {"12"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), service.MsgSelectStudent)
	})
}

func TestFieldErrors(t *testing.T) {
	assert.Nil(t, fieldErrors(nil))
	assert.Nil(t, fieldErrors(apperrors.Validation("x")))
	assert.Equal(t, map[string]string{"nombre": "nombre es obligatorio"},
		fieldErrors(apperrors.ValidationField("nombre", "nombre es obligatorio")))
}
