package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/logger"
)

// recoveryBody matches the httputil.Response envelope without importing it
// (httputil already depends on this package's siblings).
type recoveryBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// Recovery converts panics into the orchestrator's standard 500 envelope
// instead of crashing the process. A panic mid-saga still orphans downstream
// state; the recovery here only protects the other in-flight requests.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					var body recoveryBody
					body.Error.Code = "INTERNAL_ERROR"
					body.Error.Message = "an internal error occurred"
					body.Error.RequestID = logger.CorrelationIDFromContext(r.Context())

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					if err := json.NewEncoder(w).Encode(body); err != nil {
						l.Error("failed to encode response", slog.String("error", err.Error()))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
