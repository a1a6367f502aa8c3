package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// CSRF defaults.
const (
	DefaultCSRFCookieName = "aula_csrf"
	DefaultCSRFHeaderName = "X-Csrf-Token"
	DefaultCSRFFormField  = "csrf_token"
	csrfTokenBytes        = 32
	csrfCookieMaxAge      = 12 * 3600
)

// CSRFConfig configures CSRFProtection.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
}

// CSRFProtection guards state-changing requests with a double-submit cookie. The token
// is accepted from the X-Csrf-Token header (htmx) or the csrf_token form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultCSRFFormField
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				fresh, err := newCSRFToken()
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				token = fresh
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteStrictMode,
					MaxAge:   csrfCookieMaxAge,
				})
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))
			if !isSafeMethod(r.Method) && !csrfTokenMatches(r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// csrfTokenMatches compares the submitted token with the cookie in constant time.
func csrfTokenMatches(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}
	submitted := r.Header.Get(cfg.HeaderName)
	if submitted == "" {
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseForm(); err != nil {
				return false
			}
			submitted = r.PostFormValue(cfg.FormFieldName)
		}
	}
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(cookieToken)) == 1
}

type csrfTokenKey struct{}

// CSRFToken returns the token bound to the request, for forms and htmx headers.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
