// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/icaoscore/internal/adapters/mq/broadcast"
	"github.com/okian/icaoscore/internal/adapters/repository"
	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/dedupe"
	"github.com/okian/icaoscore/internal/domain/form"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/internal/export"
	"github.com/okian/icaoscore/pkg/logger"
	"github.com/okian/icaoscore/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/okian/icaoscore/internal/app"

// Service holds the latest entry snapshot and the views derived from it,
// and exposes the role-scoped operations of the scoring tool.
type Service struct {
	mu sync.Mutex // guards started and unsubscribe

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	stream  *broadcast.Broadcaster[View]
	tracer  trace.Tracer

	// Configuration
	loc             *time.Location
	now             func() time.Time
	dedupeSize      int
	maxListeners    int
	bulkConcurrency int
	palette         export.ChartPalette

	// State
	view        atomic.Pointer[View]
	started     bool
	unsubscribe func()

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		loc:          time.Local,
		now:          time.Now,
		dedupeSize:   10000,
		maxListeners: 1024,
		palette:      export.DefaultPalette,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.view.Store(emptyView())
	return s
}

// Start subscribes to the entry store. The first snapshot is applied
// before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.stream = broadcast.New[View](broadcast.WithMaxListeners(s.maxListeners))

	unsubscribe, err := s.store.Subscribe(ctx, s.applySnapshot)
	if err != nil {
		_ = s.stream.Close()
		return fmt.Errorf("%w: subscribe: %w", ErrStore, err)
	}
	s.unsubscribe = unsubscribe
	s.started = true

	s.logger.Info(ctx, "scoring service started",
		logger.Int("entries", len(s.current().Entries)),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop detaches from the store and closes live streams. The store itself
// is closed by its owner.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping scoring service...")

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	_ = s.stream.Close()

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// applySnapshot sorts a delivered snapshot, recomputes every derived view,
// and publishes the result.
func (s *Service) applySnapshot(entries []model.Entry) {
	start := time.Now()
	sorted := aggregate.SortByTimeDesc(entries)
	v := &View{
		Entries:   sorted,
		Summary:   aggregate.Summarize(sorted),
		UpdatedAt: s.now(),
	}
	s.view.Store(v)

	metrics.RecordSnapshot(len(sorted))
	metrics.RecordSnapshotRecompute(float64(time.Since(start).Microseconds()) / 1000)
	if s.stream != nil {
		s.stream.Publish(context.Background(), *v)
	}
}

func (s *Service) current() *View {
	return s.view.Load()
}

// Snapshot returns the current derived view.
func (s *Service) Snapshot() View {
	return *s.current()
}

// Entries returns the entries visible to the session, newest first.
func (s *Service) Entries(_ context.Context, sess access.Session, anonymize bool) []model.Entry {
	return s.current().For(sess, anonymize)
}

// Summary returns distributions and averages over every entry.
func (s *Service) Summary(_ context.Context, sess access.Session) (aggregate.Summary, error) {
	if !sess.CanViewStats() {
		return aggregate.Summary{}, ErrForbidden
	}
	return s.current().Summary, nil
}

// Watch attaches a live listener to derived views. Callers scope each
// view with View.For and must Close the subscription.
func (s *Service) Watch(ctx context.Context) (*broadcast.Subscription[View], error) {
	s.mu.Lock()
	started, stream := s.started, s.stream
	s.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}
	return stream.Subscribe(ctx)
}

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	ID       string     `json:"id,omitempty"`
	State    form.State `json:"state"`
	Replayed bool       `json:"replayed,omitempty"`
}

// Submit validates the form and persists the resulting draft. A non-empty
// idempotency key makes retries by the same user return the first created
// id instead of creating another entry. The returned state is the next form state for
// every outcome, including errors.
func (s *Service) Submit(ctx context.Context, sess access.Session, st form.State, idemKey string) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Submit",
		trace.WithAttributes(
			attribute.String("session.role", sess.Role.String()),
			attribute.Bool("idempotency.key_present", idemKey != ""),
		),
	)
	defer span.End()

	if !s.isStarted() {
		return SubmitResult{State: st}, ErrNotStarted
	}

	st.Submitting = false
	st.Acknowledged = false
	next, eff := form.Reduce(st, form.SubmitRequested{UserID: sess.UserID, At: s.now()})
	if eff.Draft == nil {
		reason := "missing_scores"
		if next.Notice == form.NoticeNameRequired {
			reason = "missing_name"
		}
		metrics.RecordSubmissionRejected(reason)
		span.SetAttributes(attribute.String("rejected.reason", reason))
		return SubmitResult{State: next}, fmt.Errorf("%w: %s", ErrValidation, next.Notice)
	}
	draft := *eff.Draft
	if err := draft.Validate(); err != nil {
		metrics.RecordSubmissionRejected("invalid_draft")
		next.Submitting = false
		next.ShowErrors = true
		return SubmitResult{State: next}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Keys are scoped to the submitting user so two raters never share one.
	dedupeKey := ""
	if idemKey != "" {
		dedupeKey = sess.UserID + "\x00" + idemKey
	}
	if dedupeKey != "" {
		id, outcome := s.deduper.Claim(ctx, dedupeKey)
		switch outcome {
		case dedupe.Done:
			metrics.RecordIdempotentReplay()
			done, _ := form.Reduce(next, form.SubmitSucceeded{})
			return SubmitResult{ID: id, State: done, Replayed: true}, nil
		case dedupe.InFlight:
			next.Submitting = false
			return SubmitResult{State: next}, ErrSubmissionInFlight
		case dedupe.Claimed:
		}
	}

	id, err := s.store.Create(ctx, draft)
	if err != nil {
		if dedupeKey != "" {
			s.deduper.Release(ctx, dedupeKey)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		s.logger.Error(ctx, "failed to persist entry", logger.Error(err), logger.String("userId", sess.UserID))
		failed, _ := form.Reduce(next, form.SubmitFailed{Err: err})
		return SubmitResult{State: failed}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if dedupeKey != "" {
		s.deduper.Complete(ctx, dedupeKey, id)
	}

	metrics.RecordEntrySubmitted()
	span.SetAttributes(attribute.String("entry.id", id))
	s.logger.Debug(ctx, "entry submitted", logger.String("id", id), logger.String("userId", sess.UserID))
	done, _ := form.Reduce(next, form.SubmitSucceeded{})
	return SubmitResult{ID: id, State: done}, nil
}

// Delete removes one entry once confirmed.
func (s *Service) Delete(ctx context.Context, sess access.Session, id string, confirmed bool) error {
	ctx, span := s.tracer.Start(ctx, "Service.Delete", trace.WithAttributes(attribute.String("entry.id", id)))
	defer span.End()

	if !sess.CanDelete() {
		return ErrForbidden
	}
	if !confirmed {
		return &ConfirmationError{Prompt: PromptDeleteOne, Count: 1}
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		s.logger.Error(ctx, "failed to delete entry", logger.Error(err), logger.String("id", id))
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	metrics.RecordEntriesDeleted(1)
	return nil
}

// BulkResult is the outcome of BulkDelete.
type BulkResult struct {
	Requested int    `json:"requested"`
	Cleared   bool   `json:"cleared"`
	Notice    string `json:"notice,omitempty"`
}

// BulkDelete removes every selected entry once confirmed. Deletes are
// issued concurrently and all of them run to completion; the first error
// is returned and nothing is rolled back. An empty selection is a no-op.
func (s *Service) BulkDelete(ctx context.Context, sess access.Session, ids []string, confirmed bool) (BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.BulkDelete")
	defer span.End()

	if !sess.CanDelete() {
		return BulkResult{}, ErrForbidden
	}
	selection := uniqueIDs(ids)
	span.SetAttributes(attribute.Int("selection.size", len(selection)))
	if len(selection) == 0 {
		return BulkResult{Notice: NoticeNoneSelected}, nil
	}
	if !confirmed {
		return BulkResult{Requested: len(selection)}, &ConfirmationError{Prompt: PromptDeleteMany(len(selection)), Count: len(selection)}
	}

	// A plain group: one failed delete must not cancel its siblings.
	var g errgroup.Group
	if s.bulkConcurrency > 0 {
		g.SetLimit(s.bulkConcurrency)
	}
	var deleted atomic.Int64
	for _, id := range selection {
		g.Go(func() error {
			if err := s.store.DeleteByID(ctx, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()

	metrics.RecordBulkDelete()
	metrics.RecordEntriesDeleted(int(deleted.Load()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk delete failed")
		s.logger.Error(ctx, "bulk delete failed",
			logger.Error(err),
			logger.Int("requested", len(selection)),
			logger.Int64("deleted", deleted.Load()),
		)
		return BulkResult{Requested: len(selection)}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return BulkResult{Requested: len(selection), Cleared: true}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Artifact is a rendered download.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportCSV renders every entry, newest first, as CSV.
func (s *Service) ExportCSV(ctx context.Context, sess access.Session) (Artifact, error) {
	return s.exportTable(ctx, sess, "csv", export.MIMECSV, export.CSV)
}

// ExportXLSX renders every entry, newest first, as an XLSX workbook.
func (s *Service) ExportXLSX(ctx context.Context, sess access.Session) (Artifact, error) {
	return s.exportTable(ctx, sess, "xlsx", export.MIMEXLSX, export.XLSX)
}

func (s *Service) exportTable(
	ctx context.Context,
	sess access.Session,
	ext, mime string,
	render func([]model.Entry, *time.Location) ([]byte, error),
) (Artifact, error) {
	_, span := s.tracer.Start(ctx, "Service.Export", trace.WithAttributes(attribute.String("export.format", ext)))
	defer span.End()

	if !sess.CanExport() {
		return Artifact{}, ErrForbidden
	}
	body, err := render(s.current().For(sess, false), s.loc)
	if err != nil {
		if !errors.Is(err, export.ErrNoData) {
			span.RecordError(err)
			s.logger.Error(ctx, "export failed", logger.Error(err), logger.String("format", ext))
		}
		return Artifact{}, err
	}
	metrics.RecordExport(ext)
	return Artifact{Filename: export.Filename(ext, s.now()), ContentType: mime, Body: body}, nil
}

// Chart renders the distribution of one criterion, or of overall scores
// when c is nil, as a PNG.
func (s *Service) Chart(ctx context.Context, sess access.Session, c *rubric.Criterion) (Artifact, error) {
	_, span := s.tracer.Start(ctx, "Service.Chart")
	defer span.End()

	if !sess.CanViewStats() {
		return Artifact{}, ErrForbidden
	}
	v := s.current()
	title, h := "Overall", v.Summary.OverallDistribution
	if c != nil {
		if !c.Valid() {
			return Artifact{}, fmt.Errorf("%w: %s", rubric.ErrUnknownCriterion, c)
		}
		title, h = c.String(), v.Summary.Criteria[*c].Distribution
	}
	body, err := export.DistributionChart(title, h, s.palette)
	if err != nil {
		span.RecordError(err)
		return Artifact{}, err
	}
	metrics.RecordExport("png")
	return Artifact{Filename: export.Filename("png", s.now()), ContentType: export.MIMEPNG, Body: body}, nil
}

func (s *Service) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	started, stream, deduper := s.started, s.stream, s.deduper
	s.mu.Unlock()

	v := s.current()
	stats := map[string]any{
		"started":    started,
		"entries":    len(v.Entries),
		"updatedAt":  v.UpdatedAt,
		"dedupeSize": s.dedupeSize,
	}
	if started {
		stats["streamListeners"] = stream.Len()
		stats["idempotencyKeys"] = deduper.Size()
	}
	return stats
}
