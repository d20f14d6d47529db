package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/icaoscore/internal/app"
	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/export"
)

type exportFunc func(ctx context.Context, sess access.Session) (service.Artifact, error)

// handleExportCSV handles GET /export.csv. Trainer only.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "api.export_csv", s.deps.ExportCSV)
}

// handleExportXLSX handles GET /export.xlsx. Trainer only.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "api.export_xlsx", s.deps.ExportXLSX)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, op string, render exportFunc) {
	a, err := render(r.Context(), sessionFrom(r.Context()))
	if errors.Is(err, export.ErrNoData) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "no_data",
			Message: Wrap(op, err).Error(),
			Notice:  export.NoticeNoData,
		})
		return
	}
	if err != nil {
		s.writeServiceError(w, r, Wrap(op, err))
		return
	}
	writeArtifact(w, a, false)
}
