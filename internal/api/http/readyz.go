package http

import (
	"net/http"
	"time"

	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
)

// NotifierStater reports the state of the outbound mail circuit breaker.
type NotifierStater interface {
	State() string
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database. An open mail breaker is reported but does not fail readiness.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	plannersdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	plannersdk.HealthResponse	"database unreachable"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store, notifier NotifierStater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &plannersdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if notifier != nil {
			checks.Notifier = notifier.State()
		}

		httpx.WriteJSON(w, statusCode, plannersdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
