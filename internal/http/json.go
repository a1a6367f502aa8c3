package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
)

// sessionStatus is the body of GET /auth/status.
type sessionStatus struct {
	Authenticated bool                    `json:"authenticated"`
	State         string                  `json:"state"`
	User          *domainauth.CurrentUser `json:"user"`
}

func newSessionStatus(snap domainauth.Snapshot) sessionStatus {
	return sessionStatus{
		Authenticated: snap.Authenticated,
		State:         snap.State().String(),
		User:          snap.User,
	}
}

// WriteJSON encodes v before touching the response so an encoding failure still yields a clean 500.
// Session-dependent bodies must never be cached by intermediaries.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}
