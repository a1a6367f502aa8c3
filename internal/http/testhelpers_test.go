package httpx

import (
	"context"
	"os"
	"sync"
	"testing"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
	"github.com/aulaweb/aula-admin/internal/service"
)

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// fakeAuth is a test double for the auth gateway.
type fakeAuth struct {
	mu          sync.Mutex
	snap        domainauth.Snapshot
	token       bool
	profile     *domainauth.CurrentUser // loaded by EnsureProfileLoaded
	ensureCalls int
	logoutCalls int

	loginFn   func(ctx context.Context, creds domainauth.Credentials, returnURL string) (*service.LoginResult, error)
	recoverFn func(ctx context.Context, email string) (string, error)
	resetFn   func(ctx context.Context, token, password string) (*service.ResetResult, error)
}

var _ AuthService = (*fakeAuth)(nil)

func signedInAs(id string, role domainauth.Role) *fakeAuth {
	return &fakeAuth{
		token: true,
		snap: domainauth.Snapshot{
			Authenticated: true,
			User:          &domainauth.CurrentUser{ID: id, DisplayName: "Usuario " + id, Role: role},
		},
	}
}

func (f *fakeAuth) Login(ctx context.Context, creds domainauth.Credentials, returnURL string) (*service.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, creds, returnURL)
	}
	landing := service.LandingPath(domainauth.RoleAdmin, returnURL)
	ContextNavigator{}.Navigate(ctx, landing)
	return &service.LoginResult{Landing: landing}, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.snap = domainauth.Snapshot{}
	f.token = false
	f.mu.Unlock()
	ContextNavigator{}.Navigate(ctx, service.PathLogin)
	return nil
}

func (f *fakeAuth) RecoverPassword(ctx context.Context, email string) (string, error) {
	if f.recoverFn != nil {
		return f.recoverFn(ctx, email)
	}
	return "", nil
}

func (f *fakeAuth) ResetPassword(ctx context.Context, token, password string) (*service.ResetResult, error) {
	if f.resetFn != nil {
		return f.resetFn(ctx, token, password)
	}
	return &service.ResetResult{Landing: service.PathLogin}, nil
}

func (f *fakeAuth) Snapshot(context.Context) domainauth.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeAuth) HasToken(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAuth) EnsureProfileLoaded(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	if f.snap.User != nil {
		return true
	}
	if !f.token || f.profile == nil {
		return false
	}
	f.snap = domainauth.Snapshot{Authenticated: true, User: f.profile}
	return true
}
