package api

import (
	"net/http"

	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleHealth handles GET /healthz by serving the service's Prometheus
// registry.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// HandleRubric handles GET /rubric: criteria, level names and descriptors.
func HandleRubric(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rubric.Describe())
}
