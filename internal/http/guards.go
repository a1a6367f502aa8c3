package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/observability/metrics"
	"github.com/aulaweb/aula-admin/internal/service"
)

// SessionReader is the slice of the auth gateway the guards need.
type SessionReader interface {
	Snapshot(ctx context.Context) domainauth.Snapshot
	HasToken(ctx context.Context) bool
	EnsureProfileLoaded(ctx context.Context) bool
}

var _ SessionReader = (*service.AuthService)(nil)

type userKey struct{}

// UserFromContext returns the profile the guard admitted, if it was loaded.
func UserFromContext(ctx context.Context) *domainauth.CurrentUser {
	u, _ := ctx.Value(userKey{}).(*domainauth.CurrentUser)
	return u
}

func withUser(r *http.Request, u *domainauth.CurrentUser) *http.Request {
	if u == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), userKey{}, u))
}

// RequireAuth admits the request iff the session is authenticated. Anyone else is sent
// to the login page with the requested path preserved.
func RequireAuth(sessions SessionReader, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sessions.Snapshot(r.Context())
			if !snap.Authenticated {
				m.ObserveGuardDenial(metrics.DenyUnauthenticated)
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, withUser(r, snap.User))
		})
	}
}

// RequireRole admits the request when the signed-in user holds role, compared case-insensitively.
// A missing profile is fetched once before deciding. Mismatches go to the login page,
// not a forbidden page, with the requested path preserved.
func RequireRole(sessions SessionReader, role domainauth.Role, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !sessions.HasToken(ctx) {
				m.ObserveGuardDenial(metrics.DenyUnauthenticated)
				redirectToLogin(w, r)
				return
			}

			snap := sessions.Snapshot(ctx)
			if snap.User == nil {
				if !sessions.EnsureProfileLoaded(ctx) {
					m.ObserveGuardDenial(metrics.DenyUnauthenticated)
					redirectToLogin(w, r)
					return
				}
				snap = sessions.Snapshot(ctx)
			}

			if !snap.HasRole(role) {
				m.ObserveGuardDenial(metrics.DenyRole)
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, withUser(r, snap.User))
		})
	}
}

// loginURL builds the login location carrying returnPath.
func loginURL(returnPath string) string {
	if returnPath == "" || returnPath == "/" || returnPath == service.PathLogin {
		return service.PathLogin
	}
	return service.PathLogin + "?returnUrl=" + url.QueryEscape(returnPath)
}

// redirectToLogin sends the browser to the login page. htmx requests get an Hx-Redirect
// so the whole page navigates instead of swapping the login form into a fragment.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	Redirect(w, r, loginURL(redirectPathForRequest(r)))
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath keeps redirects inside the application.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
