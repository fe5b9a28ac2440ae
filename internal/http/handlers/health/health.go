// Package health serves the liveness endpoint.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Pinger is the part of the store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// Handler handles GET /healthz: 200 when the store answers a ping,
// 503 otherwise.
func Handler(store Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}
