package httpx

import (
	"context"
	"net/http"
	"sync"

	"github.com/aulaweb/aula-admin/internal/ports"
)

// Navigation records the destination the auth gateway chose while a request was handled.
// Handlers turn it into a redirect once the service call returns.
type Navigation struct {
	mu     sync.Mutex
	target string
}

// Target returns the last recorded destination, or "".
func (n *Navigation) Target() string {
	if n == nil {
		return ""
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

func (n *Navigation) set(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

type navigationKey struct{}

// WithNavigation attaches a fresh Navigation to ctx.
func WithNavigation(ctx context.Context) (context.Context, *Navigation) {
	nav := &Navigation{}
	return context.WithValue(ctx, navigationKey{}, nav), nav
}

// NavigationFromContext returns the Navigation bound to ctx, or nil.
func NavigationFromContext(ctx context.Context) *Navigation {
	nav, _ := ctx.Value(navigationKey{}).(*Navigation)
	return nav
}

// Navigate is middleware that gives each request its own Navigation.
func Navigate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := WithNavigation(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextNavigator implements ports.Navigator by recording into the request's Navigation.
// Calls outside a request are dropped.
type ContextNavigator struct{}

var _ ports.Navigator = ContextNavigator{}

// Navigate records path on the Navigation carried by ctx.
func (ContextNavigator) Navigate(ctx context.Context, path string) {
	if nav := NavigationFromContext(ctx); nav != nil {
		nav.set(path)
	}
}
