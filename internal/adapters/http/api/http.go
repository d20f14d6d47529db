// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/icaoscore/internal/adapters/mq/broadcast"
	service "github.com/okian/icaoscore/internal/app"
	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/form"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Entries(ctx context.Context, sess access.Session, anonymize bool) []model.Entry
	Summary(ctx context.Context, sess access.Session) (aggregate.Summary, error)
	Watch(ctx context.Context) (*broadcast.Subscription[service.View], error)

	Submit(ctx context.Context, sess access.Session, st form.State, idemKey string) (service.SubmitResult, error)
	Delete(ctx context.Context, sess access.Session, id string, confirmed bool) error
	BulkDelete(ctx context.Context, sess access.Session, ids []string, confirmed bool) (service.BulkResult, error)

	ExportCSV(ctx context.Context, sess access.Session) (service.Artifact, error)
	ExportXLSX(ctx context.Context, sess access.Session) (service.Artifact, error)
	Chart(ctx context.Context, sess access.Session, c *rubric.Criterion) (service.Artifact, error)

	GetStats() map[string]any
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	deps     Dependencies
	sessions *sessions
	limiter  *submitLimiter
	logger   logger.Logger
}

// NewServer creates a new API server over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		sessions: &sessions{resolver: access.NewResolver(nil)},
		limiter:  newSubmitLimiter(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(s.sessions.middleware(h), endpoint))
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.HandleFunc("GET /rubric", MetricsMiddleware(HandleRubric, "rubric"))
	handle("GET /status", "status", s.handleStatus)

	handle("GET /entries", "entries", s.handleListEntries)
	handle("POST /entries", "submit", s.handleSubmit)
	handle("GET /entries/stream", "stream", s.handleStream)
	handle("DELETE /entries/{id}", "delete", s.handleDelete)
	handle("POST /entries/bulk-delete", "bulk_delete", s.handleBulkDelete)

	handle("GET /stats", "stats", s.handleStats)
	handle("GET /stats/chart.png", "chart", s.handleChart)
	handle("GET /export.csv", "export_csv", s.handleExportCSV)
	handle("GET /export.xlsx", "export_xlsx", s.handleExportXLSX)

	handle("POST /session/reset", "session_reset", s.handleSessionReset)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Notice  string `json:"notice,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error to its status and body, carrying
// the confirmation prompt when one is required.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	var confirm *service.ConfirmationError
	if errors.As(err, &confirm) {
		resp.Prompt = confirm.Prompt
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

// writeArtifact sends a rendered download.
func writeArtifact(w http.ResponseWriter, a service.Artifact, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+a.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Body)
}
