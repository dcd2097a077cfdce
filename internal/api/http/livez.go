package http

import (
	"net/http"
	"time"

	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
)

// LivezHandler always returns 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := oauth2x.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
