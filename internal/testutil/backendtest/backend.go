// Package backendtest provides a scriptable fake of the school REST backend for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/aulaweb/aula-admin/internal/testutil"
)

// APIPrefix is where the fake mounts the API, mirroring the real /api base.
const APIPrefix = "/api"

// Request is a recorded call to the fake backend.
type Request struct {
	Method        string
	Path          string // relative to the API base, without leading slash
	Query         string
	Authorization string
	Body          any
}

// Responder computes a response for a matched route.
type Responder func(req Request) (status int, body any)

// Backend is an httptest.Server answering scripted JSON responses keyed by method and path.
// Unscripted routes answer 404 {"error":"not found"}.
type Backend struct {
	t   testutil.TestingTB
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]Responder
	requests []Request
}

// New starts a fake backend. Call Close when done.
func New(t testutil.TestingTB) *Backend {
	t.Helper()
	b := &Backend{t: t, routes: make(map[string]Responder)}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(b.Close)
	}
	return b
}

// URL returns the API base URL (server URL plus /api).
func (b *Backend) URL() string { return b.srv.URL + APIPrefix }

// Close stops the server. It is safe to call more than once.
func (b *Backend) Close() { b.srv.Close() }

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + strings.TrimLeft(path, "/")
}

// Handle scripts a fixed response for method and path.
func (b *Backend) Handle(method, path string, status int, body any) {
	b.HandleFunc(method, path, func(Request) (int, any) { return status, body })
}

// HandleFunc scripts a dynamic response for method and path.
func (b *Backend) HandleFunc(method, path string, fn Responder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[routeKey(method, path)] = fn
}

// Requests returns every recorded request in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Paths returns "METHOD path" for every recorded request.
func (b *Backend) Paths() []string {
	reqs := b.Requests()
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, routeKey(r.Method, r.Path))
	}
	return out
}

// Last returns the most recent request matching method and path.
func (b *Backend) Last(method, path string) (Request, bool) {
	key := routeKey(method, path)
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if routeKey(reqs[i].Method, reqs[i].Path) == key {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, APIPrefix)
	rel = strings.TrimPrefix(rel, "/")

	rec := Request{
		Method:        r.Method,
		Path:          rel,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
	}
	if raw, err := io.ReadAll(r.Body); err == nil && len(raw) > 0 {
		var body any
		if jsonErr := json.Unmarshal(raw, &body); jsonErr == nil {
			rec.Body = body
		} else {
			rec.Body = string(raw)
		}
	}

	b.mu.Lock()
	b.requests = append(b.requests, rec)
	fn, ok := b.routes[routeKey(r.Method, rel)]
	b.mu.Unlock()

	status, body := http.StatusNotFound, any(map[string]any{"error": "not found"})
	if ok {
		status, body = fn(rec)
	}

	if s, isString := body.(string); isString {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		if _, err := io.WriteString(w, s); err != nil {
			b.t.Logf("write fake backend response: %v", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		b.t.Logf("encode fake backend response: %v", err)
	}
}
