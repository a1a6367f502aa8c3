package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	mockauth "github.com/aulaweb/aula-admin/internal/mocks/auth"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/testutil"
	"github.com/aulaweb/aula-admin/internal/testutil/backendtest"
)

type authorizerFixture struct {
	backend    *backendtest.Backend
	tokens     *mockauth.MemoryTokenStore
	authorizer *Authorizer
	client     *Client
	logouts    atomic.Int32
}

func newAuthorizerFixture(t *testing.T) *authorizerFixture {
	t.Helper()
	f := &authorizerFixture{
		backend: backendtest.New(t),
		tokens:  mockauth.NewMemoryTokenStore(),
	}
	var err error
	f.authorizer, err = NewAuthorizer(AuthorizerOptions{BaseURL: f.backend.URL(), Tokens: f.tokens})
	require.NoError(t, err)
	f.authorizer.OnUnauthorized(func(context.Context) { f.logouts.Add(1) })

	f.client, err = New(Options{BaseURL: f.backend.URL(), Transport: f.authorizer})
	require.NoError(t, err)
	return f
}

func clientCtx(id string) context.Context {
	return domainauth.WithClientID(context.Background(), id)
}

func TestAuthorizer_AttachesBearerToken(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "tok-1"))
	f.backend.Handle(http.MethodGet, "cursos", http.StatusOK, []any{})

	_, err := f.client.Get(clientCtx("c1"), "cursos", nil)
	require.NoError(t, err)

	req, _ := f.backend.Last(http.MethodGet, "cursos")
	assert.Equal(t, "Bearer tok-1", req.Authorization)
}

func TestAuthorizer_NoTokenOrNoClientPassesThrough(t *testing.T) {
	f := newAuthorizerFixture(t)
	f.backend.Handle(http.MethodGet, "cursos", http.StatusOK, []any{})

	_, err := f.client.Get(clientCtx("anon"), "cursos", nil)
	require.NoError(t, err)
	_, err = f.client.Get(context.Background(), "cursos", nil)
	require.NoError(t, err)

	for _, req := range f.backend.Requests() {
		assert.Empty(t, req.Authorization)
	}
}

func TestAuthorizer_LoginIsExempt(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "stale"))
	f.backend.Handle(http.MethodPost, LoginPath, http.StatusUnauthorized, map[string]any{"error": "bad"})

	_, err := f.client.Send(clientCtx("c1"), http.MethodPost, LoginPath, map[string]string{})
	require.Error(t, err)

	req, _ := f.backend.Last(http.MethodPost, LoginPath)
	assert.Empty(t, req.Authorization)
	assert.Equal(t, int32(0), f.logouts.Load(), "login 401 is a credential failure")
}

func TestAuthorizer_UnauthorizedForcesLogout(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "expired"))
	f.backend.Handle(http.MethodGet, "usuarios/", http.StatusUnauthorized, map[string]any{"msg": "token expirado"})

	_, err := f.client.Get(clientCtx("c1"), "usuarios/", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err), "caller still sees the 401")
	assert.Equal(t, int32(1), f.logouts.Load())
}

func TestAuthorizer_DoesNotOverwriteAuthorization(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "tok-1"))
	f.backend.Handle(http.MethodGet, "cursos", http.StatusOK, []any{})

	req, err := http.NewRequestWithContext(clientCtx("c1"), http.MethodGet, f.backend.URL()+"/cursos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer explicit")

	resp, err := f.authorizer.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	got, _ := f.backend.Last(http.MethodGet, "cursos")
	assert.Equal(t, "Bearer explicit", got.Authorization)
}

func TestAuthorizer_DoesNotMutateCallerRequest(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "tok-1"))
	f.backend.Handle(http.MethodGet, "cursos", http.StatusOK, []any{})

	req, err := http.NewRequestWithContext(clientCtx("c1"), http.MethodGet, f.backend.URL()+"/cursos", nil)
	require.NoError(t, err)
	resp, err := f.authorizer.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthorizer_ForeignHostUntouched(t *testing.T) {
	f := newAuthorizerFixture(t)
	require.NoError(t, f.tokens.Save(context.Background(), "c1", "tok-1"))

	var seen atomic.Value
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer other.Close()

	req, err := http.NewRequestWithContext(clientCtx("c1"), http.MethodGet, other.URL+"/api/cursos", nil)
	require.NoError(t, err)
	resp, err := f.authorizer.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "", seen.Load())
	assert.Equal(t, int32(0), f.logouts.Load())
}

func TestAuthorizer_RelativePath(t *testing.T) {
	a, err := NewAuthorizer(AuthorizerOptions{BaseURL: "http://api.test/api", Tokens: mockauth.NewMemoryTokenStore()})
	require.NoError(t, err)

	for raw, want := range map[string]string{
		"http://api.test/api/cursos":    "cursos",
		"http://API.test/api/":          "",
		"http://api.test/api":           "",
		"http://api.test/api/usuarios/": "usuarios",
	} {
		req := httptest.NewRequest(http.MethodGet, raw, nil)
		rel, ok := a.relativePath(req.URL)
		assert.True(t, ok, raw)
		assert.Equal(t, want, rel, raw)
	}

	for _, raw := range []string{"https://api.test/api/cursos", "http://api.test/apix/cursos", "http://other.test/api/cursos"} {
		req := httptest.NewRequest(http.MethodGet, raw, nil)
		_, ok := a.relativePath(req.URL)
		assert.False(t, ok, raw)
	}
}

func TestTokenSource(t *testing.T) {
	store := mockauth.NewMemoryTokenStore()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := testutil.Token(t, exp)
	require.NoError(t, store.Save(context.Background(), "c1", raw))

	tok, err := TokenSource(context.Background(), store, "c1").Token()
	require.NoError(t, err)
	assert.Equal(t, raw, tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(exp))
	assert.True(t, tok.Valid())

	_, err = TokenSource(context.Background(), store, "missing").Token()
	assert.True(t, errors.Is(err, ports.ErrNoToken))
}

func TestNewAuthorizer_Validation(t *testing.T) {
	_, err := NewAuthorizer(AuthorizerOptions{BaseURL: "http://x/api"})
	assert.Error(t, err)
	_, err = NewAuthorizer(AuthorizerOptions{BaseURL: "", Tokens: mockauth.NewMemoryTokenStore()})
	assert.Error(t, err)
}
