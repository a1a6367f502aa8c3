package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

// ReadyFunc reports whether a dependency the gateway cannot work without is reachable.
type ReadyFunc func(ctx context.Context) error

type healthStatus struct {
	Status string `json:"status"`
	Tokens string `json:"tokens,omitempty"`
}

// healthHandler answers liveness and token storage readiness. The backend is not probed;
// a down backend is reported on the login page instead.
func healthHandler(ready ReadyFunc, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, body := http.StatusOK, healthStatus{Status: "ok"}
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			err := ready(ctx)
			cancel()
			if err != nil {
				logger.WarnContext(r.Context(), "token store not ready", "error", err)
				code, body = http.StatusServiceUnavailable, healthStatus{Status: "degraded", Tokens: "unavailable"}
			} else {
				body.Tokens = "ok"
			}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			return
		}
		WriteJSON(w, code, body)
	}
}
