package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/datumlabs/totpgate/pkg/handler"
	"github.com/datumlabs/totpgate/pkg/logger"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// HealthCheckHandler reports {"status":"ok"} when every check passes and
// 503 with the failing dependency names otherwise. With no checks it is a
// liveness probe.
func HealthCheckHandler(log *slog.Logger, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		var failed []string
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", slog.String("dependency", name), logger.Error(err))
				failed = append(failed, name)
			}
		}

		if len(failed) > 0 {
			slices.Sort(failed)
			_ = handler.JSONStatus(http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"failed": failed,
			}).Render(w, r)
			return
		}
		_ = handler.JSON(map[string]any{"status": "ok"}).Render(w, r)
	}
}
