package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mint-booth/internal/logging"
)

const healthCheckTimeout = 2 * time.Second

// handleHealth handles GET /health. Each configured datastore is pinged; any
// failure reports the service as degraded with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(s.datastores))

	for name, store := range s.datastores {
		if err := store.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).WithField("datastore", name).WithError(err).Warn("Health check failed")
			checks[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, code, map[string]interface{}{
		"status":     status,
		"datastores": checks,
	})
}
