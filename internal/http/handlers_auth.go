package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/service"
)

// AuthGateway is the auth surface the public pages drive.
type AuthGateway interface {
	Login(ctx context.Context, creds domainauth.Credentials, returnURL string) (*service.LoginResult, error)
	Logout(ctx context.Context) error
	RecoverPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (*service.ResetResult, error)
	Snapshot(ctx context.Context) domainauth.Snapshot
}

var _ AuthGateway = (*service.AuthService)(nil)

const msgPasswordMismatch = "Las contraseñas no coinciden."

// AuthHandlers provides HTTP handlers for sign-in, sign-out and password recovery.
type AuthHandlers struct {
	T      *TemplateRenderer
	Svc    AuthGateway
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func loginMeta() PageMeta {
	return PageMeta{Title: "Iniciar sesión", PageTitle: "Iniciar sesión", CurrentPage: PageLogin}
}

// returnURLFrom reads the post-login destination, keeping it inside the application.
func returnURLFrom(r *http.Request) string {
	raw := strings.TrimSpace(r.FormValue("returnUrl"))
	if raw == "" {
		return ""
	}
	if p := safeRedirectPath(raw); p != "/" {
		return p
	}
	return ""
}

// LoginPage renders the sign-in form.
// GET /login?returnUrl=<optional_path>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, loginMeta()).
		With("ReturnURL", returnURLFrom(r)).
		With("Email", "").
		Build()
	renderPage(w, r, h.T, data, h.logger())
}

// Login submits the credentials and, on success, sends the browser to the role's landing page.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := domainauth.Credentials{
		Email:    r.PostFormValue("correo"),
		Password: r.PostFormValue("clave"),
	}
	returnURL := returnURLFrom(r)

	res, err := h.Svc.Login(r.Context(), creds, returnURL)
	if err != nil {
		h.logger().InfoContext(r.Context(), "login failed", slog.Any("error", err))
		data := NewTemplateData(r, loginMeta()).
			WithError(service.LoginErrorMessage(err)).
			With("Email", strings.TrimSpace(creds.Email)).
			With("ReturnURL", returnURL).
			Build()
		renderPage(w, r, h.T, data, h.logger())
		return
	}

	target := NavigationFromContext(r.Context()).Target()
	if target == "" {
		target = res.Landing
	}
	Redirect(w, r, target)
}

// Logout clears the session and returns to the login page.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "logout failed", slog.Any("error", err))
	}
	target := NavigationFromContext(r.Context()).Target()
	if target == "" {
		target = service.PathLogin
	}
	Redirect(w, r, target)
}

func recoverMeta() PageMeta {
	return PageMeta{Title: "Recuperar contraseña", PageTitle: "Recuperar contraseña", CurrentPage: PageRecover}
}

// RecoverPage renders the password recovery form.
// GET /recuperar-contrasena.
func (h *AuthHandlers) RecoverPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.T, NewTemplateData(r, recoverMeta()).Build(), h.logger())
}

// Recover asks the backend to email a reset link.
// POST /recuperar-contrasena.
func (h *AuthHandlers) Recover(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("correo"))
	b := NewTemplateData(r, recoverMeta()).With("Email", email)

	msg, err := h.Svc.RecoverPassword(r.Context(), email)
	if err != nil {
		b.WithError(service.NoticeMessage(err)).WithFieldErrors(fieldErrors(err))
	} else {
		if msg == "" {
			msg = service.MsgRecoverSent
		}
		b.With("Sent", true).With("Flash", msg)
	}
	renderPage(w, r, h.T, b.Build(), h.logger())
}

func resetMeta() PageMeta {
	return PageMeta{Title: "Restablecer contraseña", PageTitle: "Restablecer contraseña", CurrentPage: PageReset}
}

// ResetPage renders the new-password form for an emailed reset link.
// GET /restablecer-contrasena/{token}.
func (h *AuthHandlers) ResetPage(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, resetMeta()).With("ResetToken", r.PathValue("token")).Build()
	renderPage(w, r, h.T, data, h.logger())
}

// Reset sets the new password. A backend that answers with a session token signs the
// user in; otherwise the browser goes back to the login page.
// POST /restablecer-contrasena/{token}.
func (h *AuthHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	password := r.FormValue("clave")
	b := NewTemplateData(r, resetMeta()).With("ResetToken", token)

	if confirm := r.FormValue("confirmar"); confirm != password {
		b.WithError(msgPasswordMismatch).WithFieldErrors(map[string]string{"confirmar": msgPasswordMismatch})
		renderPage(w, r, h.T, b.Build(), h.logger())
		return
	}

	res, err := h.Svc.ResetPassword(r.Context(), token, password)
	if err != nil {
		h.logger().InfoContext(r.Context(), "password reset failed", slog.Any("error", err))
		b.WithError(service.NoticeMessage(err)).WithFieldErrors(fieldErrors(err))
		renderPage(w, r, h.T, b.Build(), h.logger())
		return
	}
	if !res.SignedIn {
		afterWrite(w, r, service.PathLogin, "clave")
		return
	}
	target := NavigationFromContext(r.Context()).Target()
	if target == "" {
		target = res.Landing
	}
	Redirect(w, r, target)
}

// Status reports the client's session snapshot as JSON.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.Svc.Snapshot(r.Context())
	WriteJSON(w, http.StatusOK, newSessionStatus(snap))
}
