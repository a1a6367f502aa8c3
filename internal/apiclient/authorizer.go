package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/aulaweb/aula-admin/internal/adapters/jwtexp"
	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/ports"
)

// LoginPath is the backend login endpoint. It is never authorized and its 401s are
// credential failures, not expired sessions.
const LoginPath = "autenticacion/iniciarSesion"

// UnauthorizedFunc is invoked when an authorized backend call is rejected with 401.
type UnauthorizedFunc func(ctx context.Context)

// AuthorizerOptions configures an Authorizer.
type AuthorizerOptions struct {
	BaseURL string
	Tokens  ports.TokenStore
	// Next is the underlying transport. Defaults to http.DefaultTransport.
	Next http.RoundTripper
	// ExemptPaths are API-relative paths that pass through untouched. Defaults to LoginPath.
	ExemptPaths []string
	Logger      *slog.Logger
}

// Authorizer attaches the client's bearer token to backend requests.
//
// Only requests under the API base are touched. The client identity comes from the
// request context; without one the request passes through unchanged.
type Authorizer struct {
	base           *url.URL
	tokens         ports.TokenStore
	next           http.RoundTripper
	exempt         map[string]struct{}
	onUnauthorized atomic.Pointer[UnauthorizedFunc]
	logger         *slog.Logger
}

// NewAuthorizer builds an Authorizer for the given API base.
func NewAuthorizer(opts AuthorizerOptions) (*Authorizer, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Tokens == nil {
		return nil, errors.New("authorizer requires a token store")
	}
	next := opts.Next
	if next == nil {
		next = http.DefaultTransport
	}
	exemptPaths := opts.ExemptPaths
	if exemptPaths == nil {
		exemptPaths = []string{LoginPath}
	}
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[strings.Trim(p, "/")] = struct{}{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		base:   base,
		tokens: opts.Tokens,
		next:   next,
		exempt: exempt,
		logger: logger.With("component", "authorizer"),
	}, nil
}

// OnUnauthorized registers the logout hook. It is set after construction because the
// auth service that owns logout itself depends on the client built on this transport.
func (a *Authorizer) OnUnauthorized(fn UnauthorizedFunc) {
	if fn == nil {
		a.onUnauthorized.Store(nil)
		return
	}
	a.onUnauthorized.Store(&fn)
}

// RoundTrip implements http.RoundTripper.
func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	rel, ok := a.relativePath(req.URL)
	if !ok {
		return a.next.RoundTrip(req)
	}
	if _, skip := a.exempt[rel]; skip {
		return a.next.RoundTrip(req)
	}
	ctx := req.Context()
	clientID, ok := domainauth.ClientIDFromContext(ctx)
	if !ok {
		return a.next.RoundTrip(req)
	}

	out := req
	if req.Header.Get("Authorization") == "" {
		tok, err := TokenSource(ctx, a.tokens, clientID).Token()
		switch {
		case err == nil:
			// RoundTrippers must not modify the caller's request.
			out = req.Clone(ctx)
			tok.SetAuthHeader(out)
		case !errors.Is(err, ports.ErrNoToken):
			a.logger.WarnContext(ctx, "token lookup failed; sending request without credentials",
				"path", rel, "error", err)
		}
	}

	resp, err := a.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		a.logger.InfoContext(ctx, "backend rejected credentials; forcing logout", "path", rel)
		if fn := a.onUnauthorized.Load(); fn != nil {
			(*fn)(ctx)
		}
	}
	return resp, nil
}

// relativePath reports the API-relative path of u when u targets the API base.
func (a *Authorizer) relativePath(u *url.URL) (string, bool) {
	if u == nil || !strings.EqualFold(u.Scheme, a.base.Scheme) || !strings.EqualFold(u.Host, a.base.Host) {
		return "", false
	}
	basePath := a.base.Path
	if basePath == "" {
		return strings.Trim(u.Path, "/"), true
	}
	if u.Path != basePath && !strings.HasPrefix(u.Path, basePath+"/") {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(u.Path, basePath), "/"), true
}

// storeTokenSource adapts a TokenStore entry to oauth2.TokenSource.
type storeTokenSource struct {
	ctx      context.Context
	store    ports.TokenStore
	clientID string
}

// TokenSource returns an oauth2.TokenSource reading clientID's token from store.
// Expiry is filled from the JWT exp claim when readable.
func TokenSource(ctx context.Context, store ports.TokenStore, clientID string) oauth2.TokenSource {
	return storeTokenSource{ctx: ctx, store: store, clientID: clientID}
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	raw, err := s.store.Get(s.ctx, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if raw == "" {
		return nil, ports.ErrNoToken
	}
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := jwtexp.Expiry(raw); ok {
		tok.Expiry = exp
	}
	return tok, nil
}
