package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/pkg/logger"
	"github.com/okian/icaoscore/pkg/metrics"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const defaultPollInterval = 2 * time.Second

// entryRow is the persisted form of model.Entry.
type entryRow struct {
	bun.BaseModel `bun:"table:score_entries,alias:se"`
	ID            string `bun:"id,pk"`
	CandidateID   string `bun:"candidate_id,nullzero"`
	RaterName     string `bun:"rater_name,notnull"`
	Scores        []int  `bun:"scores,array,notnull"`
	TimestampMs   int64  `bun:"timestamp_ms,notnull"`
	UserID        string `bun:"user_id,notnull"`
}

func rowFromEntry(e model.Entry) *entryRow {
	return &entryRow{
		ID:          e.ID,
		CandidateID: e.CandidateID,
		RaterName:   e.RaterName,
		Scores:      slices.Clone(e.Scores[:]),
		TimestampMs: e.Timestamp,
		UserID:      e.UserID,
	}
}

func (r *entryRow) entry() (model.Entry, error) {
	if len(r.Scores) != rubric.CriterionCount {
		return model.Entry{}, fmt.Errorf("entry %s: expected %d scores, got %d", r.ID, rubric.CriterionCount, len(r.Scores))
	}
	e := model.Entry{
		ID:          r.ID,
		CandidateID: r.CandidateID,
		RaterName:   r.RaterName,
		Timestamp:   r.TimestampMs,
		UserID:      r.UserID,
	}
	copy(e.Scores[:], r.Scores)
	return e, nil
}

// PostgresStore is a Store backed by a Postgres table through bun. It
// notifies listeners after its own writes and polls for changes made by
// other processes.
type PostgresStore struct {
	db           *bun.DB
	notifier     *notifier
	pollInterval time.Duration
	newID        func() string
	log          logger.Logger

	refreshMu sync.Mutex // serializes reload + compare + publish
	snapshot  atomic.Pointer[[]model.Entry]
	closed    atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// OpenPostgres connects to dsn and returns a ready store.
func OpenPostgres(ctx context.Context, dsn string, log logger.Logger, opts ...PostgresOption) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	return NewPostgresStore(ctx, bun.NewDB(sqldb, pgdialect.New()), log, opts...)
}

// NewPostgresStore ensures the schema exists, loads the current rows, and
// starts the change poller. The store owns db and closes it on Close.
func NewPostgresStore(ctx context.Context, db *bun.DB, log logger.Logger, opts ...PostgresOption) (*PostgresStore, error) {
	s := &PostgresStore{
		db:           db,
		notifier:     newNotifier(),
		pollInterval: defaultPollInterval,
		newID:        uuid.NewString,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := make([]model.Entry, 0)
	s.snapshot.Store(&empty)

	if _, err := db.NewCreateTable().Model((*entryRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: create table: %w", ErrUnavailable, err)
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.poll(pollCtx)
	return s, nil
}

// Snapshot returns the last loaded entries ordered by timestamp.
func (s *PostgresStore) Snapshot() []model.Entry {
	return *s.snapshot.Load()
}

// Subscribe implements Store.
func (s *PostgresStore) Subscribe(_ context.Context, l Listener) (func(), error) {
	if l == nil {
		return nil, ErrNilListener
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.notifier.add(l, s.Snapshot), nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, d model.Draft) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("create", msSince(start)) }()

	if s.closed.Load() {
		return "", ErrClosed
	}
	id := s.newID()
	if _, err := s.db.NewInsert().Model(rowFromEntry(d.WithID(id))).Exec(ctx); err != nil {
		metrics.RecordStoreError("create")
		return "", fmt.Errorf("%w: insert: %w", ErrUnavailable, err)
	}
	s.refreshAfterWrite(ctx)
	return id, nil
}

// DeleteByID implements Store.
func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("delete", msSince(start)) }()

	if id == "" {
		return ErrEmptyID
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.NewDelete().Model((*entryRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		metrics.RecordStoreError("delete")
		return fmt.Errorf("%w: delete: %w", ErrUnavailable, err)
	}
	s.refreshAfterWrite(ctx)
	return nil
}

// Close stops polling, detaches listeners, and closes the database.
func (s *PostgresStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.notifier.reset()
	return s.db.Close()
}

// refreshAfterWrite reloads after a successful write. The write already
// happened, so a reload failure is logged and left to the poller.
func (s *PostgresStore) refreshAfterWrite(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.warn(ctx, "reload after write failed", err)
	}
}

func (s *PostgresStore) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.warn(ctx, "poll failed", err)
			}
		}
	}
}

// refresh loads every row and publishes when the set of ids changed.
// Entries are immutable, so equal ids mean an equal snapshot.
func (s *PostgresStore) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var rows []entryRow
	if err := s.db.NewSelect().Model(&rows).Order("timestamp_ms ASC", "id ASC").Scan(ctx); err != nil {
		metrics.RecordStoreError("load")
		return fmt.Errorf("%w: load: %w", ErrUnavailable, err)
	}

	next := make([]model.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].entry()
		if err != nil {
			metrics.RecordStoreError("decode")
			s.warn(ctx, "skipping malformed row", err)
			continue
		}
		next = append(next, e)
	}

	if sameIDs(s.Snapshot(), next) {
		return nil
	}
	s.snapshot.Store(&next)
	s.notifier.publish(s.Snapshot)
	return nil
}

func sameIDs(a, b []model.Entry) bool {
	return slices.EqualFunc(a, b, func(x, y model.Entry) bool { return x.ID == y.ID })
}

func (s *PostgresStore) warn(ctx context.Context, msg string, err error) {
	if s.log != nil {
		s.log.Warn(ctx, msg, logger.Error(err))
	}
}
