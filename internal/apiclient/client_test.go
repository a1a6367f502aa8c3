package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/testutil/backendtest"
)

func newClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: base, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestParseBaseURL(t *testing.T) {
	u, err := ParseBaseURL(" http://localhost:5000/api/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", u.String())

	for _, bad := range []string{"", "localhost:5000", "ftp://x/api", "http:///api"} {
		_, err := ParseBaseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestClient_Resolve(t *testing.T) {
	c := newClient(t, "http://localhost:5000/api")

	assert.Equal(t, "http://localhost:5000/api/usuarios/", c.Resolve("usuarios/", nil).String())
	assert.Equal(t, "http://localhost:5000/api/cursos/asignados/u%2F1", c.Resolve("cursos/asignados/"+url.PathEscape("u/1"), nil).String())
	assert.Equal(t, "http://localhost:5000/api/cursos?profesorId=p1",
		c.Resolve("/cursos", url.Values{"profesorId": {"p1"}}).String())
}

func TestClient_GetDecodesJSON(t *testing.T) {
	b := backendtest.New(t)
	b.Handle(http.MethodGet, "cursos", http.StatusOK, map[string]any{"cursos": []any{map[string]any{"id": "c1"}}})

	got, err := newClient(t, b.URL()).Get(context.Background(), "cursos", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cursos": []any{map[string]any{"id": "c1"}}}, got)
}

func TestClient_SendEncodesBody(t *testing.T) {
	b := backendtest.New(t)
	b.Handle(http.MethodPut, "calificaciones/curso/c1", http.StatusOK, map[string]any{"success": true})

	_, err := newClient(t, b.URL()).Send(context.Background(), http.MethodPut, "calificaciones/curso/c1",
		map[string]any{"notas": []any{}})
	require.NoError(t, err)

	req, ok := b.Last(http.MethodPut, "calificaciones/curso/c1")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"notas": []any{}}, req.Body)
}

func TestClient_EmptyBody(t *testing.T) {
	b := backendtest.New(t)
	b.Handle(http.MethodDelete, "materias/m1", http.StatusNoContent, nil)

	got, err := newClient(t, b.URL()).Send(context.Background(), http.MethodDelete, "materias/m1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_APIError(t *testing.T) {
	b := backendtest.New(t)
	b.Handle(http.MethodPost, LoginPath, http.StatusUnauthorized, map[string]any{"error": "Credenciales inválidas"})
	b.Handle(http.MethodGet, "cursos/x", http.StatusNotFound, "no existe")

	c := newClient(t, b.URL())

	_, err := c.Send(context.Background(), http.MethodPost, LoginPath, map[string]string{"correo": "a@b.c"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Credenciales inválidas", Message(err))
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, apiErr.Code())

	_, err = c.Get(context.Background(), "cursos/x", nil)
	assert.Equal(t, http.StatusNotFound, Status(err))
	assert.Equal(t, "no existe", Message(err))
	assert.False(t, IsUnreachable(err))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api"
	srv.Close()

	_, err := newClient(t, base).Get(context.Background(), "cursos", nil)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Equal(t, 0, Status(err))
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL+"/api").Get(context.Background(), "cursos", nil)
	require.Error(t, err)
	assert.False(t, IsUnreachable(err))
	assert.Contains(t, err.Error(), "invalid json")
}

func TestAPIError_Code(t *testing.T) {
	tests := map[int]apperrors.ErrorCode{
		http.StatusUnauthorized:        apperrors.ErrCodeUnauthorized,
		http.StatusNotFound:            apperrors.ErrCodeNotFound,
		http.StatusConflict:            apperrors.ErrCodeConflict,
		http.StatusBadRequest:          apperrors.ErrCodeValidation,
		http.StatusGatewayTimeout:      apperrors.ErrCodeTimeout,
		http.StatusInternalServerError: apperrors.ErrCodeInternal,
	}
	for status, want := range tests {
		assert.Equal(t, want, (&APIError{Status: status}).Code(), status)
	}
}
