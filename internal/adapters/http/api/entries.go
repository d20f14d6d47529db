package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/icaoscore/internal/app"
	"github.com/okian/icaoscore/internal/domain/form"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
)

// IdempotencyKeyHeader makes submit retries safe.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxBodyBytes = 1 << 20

// entryResponse is an entry plus its derived overall score.
type entryResponse struct {
	model.Entry
	Overall int `json:"overall"`
}

type entriesResponse struct {
	Count   int             `json:"count"`
	Entries []entryResponse `json:"entries"`
}

func toEntriesResponse(entries []model.Entry) entriesResponse {
	out := entriesResponse{Count: len(entries), Entries: make([]entryResponse, len(entries))}
	for i, e := range entries {
		out.Entries[i] = entryResponse{Entry: e, Overall: e.Overall()}
	}
	return out
}

// handleListEntries handles GET /entries. Viewers see their own entries,
// trainers see all of them; anonymize=true replaces rater names.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	entries := s.deps.Entries(r.Context(), sess, queryBool(r, "anonymize"))
	writeJSON(w, http.StatusOK, toEntriesResponse(entries))
}

// submitRequest mirrors the OpenAPI schema for POST /entries. A zero
// score means the criterion was not rated.
type submitRequest struct {
	CandidateID string `json:"candidateId"`
	RaterName   string `json:"raterName"`
	Scores      []int  `json:"scores"`
}

func (req submitRequest) validate() error {
	if len(req.Scores) > rubric.CriterionCount {
		return fmt.Errorf("scores: at most %d values", rubric.CriterionCount)
	}
	for i, v := range req.Scores {
		if v != int(rubric.Unset) && !rubric.Level(v).Valid() {
			return fmt.Errorf("scores[%d]: %d is outside %d..%d", i, v, rubric.MinLevel, rubric.MaxLevel)
		}
	}
	return nil
}

// state replays the request as form edits.
func (req submitRequest) state() form.State {
	st := form.Initial()
	st, _ = form.Reduce(st, form.CandidateIDEdited{Value: req.CandidateID})
	st, _ = form.Reduce(st, form.RaterNameEdited{Value: req.RaterName})
	for i, v := range req.Scores {
		if v == int(rubric.Unset) {
			continue
		}
		st, _ = form.Reduce(st, form.ScoreSet{Criterion: rubric.Criterion(i), Level: rubric.Level(v)})
	}
	return st
}

type submitErrorResponse struct {
	errorResponse
	State form.State `json:"state"`
}

// handleSubmit handles POST /entries.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	sess := sessionFrom(r.Context())

	if !s.limiter.Allow(sess.UserID) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	res, err := s.deps.Submit(r.Context(), sess, req.state(), idemKey)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.writeServiceError(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, status, submitErrorResponse{
			errorResponse: errorResponse{Code: code, Message: Wrap(op, err).Error(), Notice: res.State.Notice},
			State:         res.State,
		})
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// handleDelete handles DELETE /entries/{id}. Without confirm=true it
// answers 428 with the confirmation prompt.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := s.deps.Delete(r.Context(), sessionFrom(r.Context()), id, queryBool(r, "confirm")); err != nil {
		s.writeServiceError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs     []string `json:"ids"`
	Confirm bool     `json:"confirm"`
}

type bulkDeleteErrorResponse struct {
	errorResponse
	Requested int `json:"requested"`
}

// handleBulkDelete handles POST /entries/bulk-delete.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_delete"
	var req bulkDeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := s.deps.BulkDelete(r.Context(), sessionFrom(r.Context()), req.IDs, req.Confirm)
	if err != nil {
		var confirm *service.ConfirmationError
		if errors.As(err, &confirm) {
			writeJSON(w, http.StatusPreconditionRequired, bulkDeleteErrorResponse{
				errorResponse: errorResponse{Code: "confirmation_required", Message: err.Error(), Prompt: confirm.Prompt},
				Requested:     res.Requested,
			})
			return
		}
		s.writeServiceError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
