package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
)

func draft(name, user string, ts int64) model.Draft {
	return model.Draft{RaterName: name, Scores: model.Scores{1, 2, 3, 4, 5, 6}, Timestamp: ts, UserID: user}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type recorder struct {
	mu        sync.Mutex
	snapshots [][]model.Entry
}

func (r *recorder) listen(entries []model.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, entries)
}

func (r *recorder) last() []model.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func TestMemoryStore_SubscribeDeliversImmediately(t *testing.T) {
	ctx := context.Background()
	seed := model.Entry{ID: "seed", RaterName: "Ana", Scores: model.Scores{4, 4, 4, 4, 4, 4}, Timestamp: 1, UserID: "u"}
	s := NewMemoryStore(WithEntries(seed))

	var rec recorder
	unsubscribe, err := s.Subscribe(ctx, rec.listen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	if rec.count() != 1 {
		t.Fatalf("expected initial snapshot, got %d deliveries", rec.count())
	}
	if got := rec.last(); len(got) != 1 || got[0].ID != "seed" {
		t.Errorf("unexpected initial snapshot: %+v", got)
	}
}

func TestMemoryStore_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithIDGenerator(sequentialIDs()))

	var rec recorder
	unsubscribe, err := s.Subscribe(ctx, rec.listen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := s.Create(ctx, draft("Ana", "u1", 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "id-1" {
		t.Errorf("expected id-1, got %s", id)
	}
	if got := rec.last(); len(got) != 1 || got[0].RaterName != "Ana" || got[0].ID != id {
		t.Errorf("snapshot after create: %+v", got)
	}

	if _, err := s.Create(ctx, draft("Ben", "u2", 20)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Len())
	}

	if err := s.DeleteByID(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := rec.last(); len(got) != 1 || got[0].RaterName != "Ben" {
		t.Errorf("snapshot after delete: %+v", got)
	}

	deliveries := rec.count()
	if err := s.DeleteByID(ctx, "unknown"); err != nil {
		t.Errorf("deleting an unknown id should succeed, got %v", err)
	}
	if rec.count() != deliveries {
		t.Errorf("unknown delete should not notify")
	}

	unsubscribe()
	unsubscribe()
	if _, err := s.Create(ctx, draft("Cai", "u3", 30)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.count() != deliveries {
		t.Errorf("unsubscribed listener was notified")
	}
}

func TestMemoryStore_SnapshotsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if _, err := s.Create(ctx, draft("Ana", "u", 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := s.Snapshot()
	if _, err := s.Create(ctx, draft("Ben", "u", 2)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(before) != 1 {
		t.Errorf("earlier snapshot changed length to %d", len(before))
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Subscribe(ctx, nil); !errors.Is(err, ErrNilListener) {
		t.Errorf("expected ErrNilListener, got %v", err)
	}
	if err := s.DeleteByID(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Create(cancelled, draft("Ana", "u", 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Create(ctx, draft("Ana", "u", 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Subscribe(ctx, func([]model.Entry) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var rec recorder
	if _, err := s.Subscribe(ctx, rec.listen); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Create(ctx, draft(fmt.Sprintf("r%d", i), "u", int64(i+1))); err != nil {
				t.Errorf("create: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != writers {
		t.Fatalf("expected %d entries, got %d", writers, s.Len())
	}
	if got := len(rec.last()); got != writers {
		t.Errorf("last delivered snapshot has %d entries, want %d", got, writers)
	}
}

func TestNotifier_UnsubscribeWaitsForDelivery(t *testing.T) {
	n := newNotifier()
	snapshot := func() []model.Entry { return nil }

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	unsubscribe := n.add(func([]model.Entry) {
		if calls.Add(1) == 2 {
			close(entered)
			<-release
		}
	}, snapshot)

	go n.publish(snapshot)
	<-entered

	done := make(chan struct{})
	go func() {
		unsubscribe()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("unsubscribe returned while a delivery was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done

	n.publish(snapshot)
	if got := calls.Load(); got != 2 {
		t.Errorf("listener called %d times, want 2", got)
	}
}
