package api

import (
	"net/http"
	"strings"

	"github.com/okian/icaoscore/internal/domain/rubric"
)

// handleStats handles GET /stats: per-criterion distributions and
// averages plus the overall distribution. Trainer only.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Summary(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, Wrap("api.stats", err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleChart handles GET /stats/chart.png?criterion=<label>. Without a
// criterion it renders the overall distribution.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.chart"
	var criterion *rubric.Criterion
	if label := strings.TrimSpace(r.URL.Query().Get("criterion")); label != "" {
		c, err := rubric.ParseCriterion(label)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		criterion = &c
	}
	a, err := s.deps.Chart(r.Context(), sessionFrom(r.Context()), criterion)
	if err != nil {
		s.writeServiceError(w, r, Wrap(op, err))
		return
	}
	writeArtifact(w, a, true)
}

// handleStatus handles GET /status with service runtime statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetStats())
}
