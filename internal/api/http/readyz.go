package http

import (
	"net/http"
	"os"
	"time"

	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
)

// ReadyzHandler reports readiness: database connectivity plus the presence
// of the storage roots sounds are staged in and served from.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	storageRoots ...string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &oauth2x.HealthChecks{
			Database: "ok",
			Storage:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		for _, root := range storageRoots {
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				checks.Storage = "error: missing storage root " + root
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		response := oauth2x.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
