// Package dedupe tracks submission idempotency keys so a retried submit
// creates at most one entry.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Outcome describes the result of claiming a key.
type Outcome int

const (
	// Claimed means the caller owns the key and must Complete or Release it.
	Claimed Outcome = iota
	// Done means the key already produced an entry; its id is returned.
	Done
	// InFlight means another caller currently owns the key.
	InFlight
)

// Deduper records idempotency keys and the entry ids they produced.
type Deduper interface {
	// Claim atomically reserves key. When the key already completed, the
	// stored entry id is returned with Done.
	Claim(ctx context.Context, key string) (string, Outcome)

	// Complete binds a claimed key to the created entry id.
	Complete(ctx context.Context, key, entryID string)

	// Release drops a claimed key so it can be retried after a failure.
	Release(ctx context.Context, key string)

	Size() int64
}

type record struct {
	key     string
	entryID string // "" while in flight
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest
// once maxSize is reached. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key string) (string, Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		r := el.Value.(*record)
		if r.entryID == "" {
			return "", InFlight
		}
		return r.entryID, Done
	}

	if d.maxSize > 0 && len(d.index) >= d.maxSize {
		d.evictOldest()
	}
	d.index[key] = d.order.PushBack(&record{key: key})
	d.size.Add(1)
	return "", Claimed
}

func (d *inMemoryDeduper) Complete(_ context.Context, key, entryID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		el.Value.(*record).entryID = entryID
	}
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		d.order.Remove(el)
		delete(d.index, key)
		d.size.Add(-1)
	}
}

// evictOldest drops the oldest completed key, falling back to the oldest
// key of any state. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	victim := d.order.Front()
	for el := victim; el != nil; el = el.Next() {
		if el.Value.(*record).entryID != "" {
			victim = el
			break
		}
	}
	if victim == nil {
		return
	}
	d.order.Remove(victim)
	delete(d.index, victim.Value.(*record).key)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
