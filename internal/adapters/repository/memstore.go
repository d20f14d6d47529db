package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/pkg/metrics"
)

// MemoryStore is an in-memory Store. Writes publish a new immutable
// snapshot that listeners receive synchronously before the write returns.
type MemoryStore struct {
	mu       sync.Mutex // serializes writers
	snapshot atomic.Pointer[[]model.Entry]
	closed   atomic.Bool
	notifier *notifier
	newID    func() string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		notifier: newNotifier(),
		newID:    uuid.NewString,
	}
	empty := make([]model.Entry, 0)
	s.snapshot.Store(&empty)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current entries in insertion order.
func (s *MemoryStore) Snapshot() []model.Entry {
	return *s.snapshot.Load()
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return len(s.Snapshot())
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(_ context.Context, l Listener) (func(), error) {
	if l == nil {
		return nil, ErrNilListener
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.notifier.add(l, s.Snapshot), nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, d model.Draft) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("create", msSince(start)) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.closed.Load() {
		metrics.RecordStoreError("create")
		return "", ErrClosed
	}

	id := s.newID()
	s.mu.Lock()
	cur := s.Snapshot()
	next := make([]model.Entry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, d.WithID(id))
	s.snapshot.Store(&next)
	s.mu.Unlock()

	s.notifier.publish(s.Snapshot)
	return id, nil
}

// DeleteByID implements Store.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("delete", msSince(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}
	if s.closed.Load() {
		metrics.RecordStoreError("delete")
		return ErrClosed
	}

	s.mu.Lock()
	cur := s.Snapshot()
	i := slices.IndexFunc(cur, func(e model.Entry) bool { return e.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	next := slices.Concat(cur[:i], cur[i+1:])
	s.snapshot.Store(&next)
	s.mu.Unlock()

	s.notifier.publish(s.Snapshot)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.notifier.reset()
	}
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
