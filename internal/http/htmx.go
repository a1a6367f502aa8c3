package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial returns true when the handler should return only the main fragment.
// History restores need the full layout.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger triggers a client-side event after swap. A nil payload sends true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", "{\""+event+"\":true}")
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// Redirect sends the browser to target: Hx-Redirect for htmx, 303 otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
