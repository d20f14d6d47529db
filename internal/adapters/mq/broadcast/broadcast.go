// Package broadcast fans the latest value out to live listeners. Every
// listener owns a single-slot mailbox: a newer value replaces an unread
// one, so a slow listener never blocks the publisher and always ends on
// the latest value.
package broadcast

import (
	"context"
	"sync"

	"github.com/okian/icaoscore/pkg/metrics"
)

const defaultMaxListeners = 1024

// Broadcaster delivers published values to every subscription.
type Broadcaster[T any] struct {
	mu           sync.RWMutex
	subs         map[*Subscription[T]]struct{}
	latest       T
	hasLatest    bool
	maxListeners int
	closed       bool
}

// Subscription is one listener's mailbox.
type Subscription[T any] struct {
	ch chan T
	b  *Broadcaster[T]
}

// New creates a broadcaster with configuration options.
func New[T any](opts ...Option) *Broadcaster[T] {
	c := config{maxListeners: defaultMaxListeners}
	for _, opt := range opts {
		opt(&c)
	}
	return &Broadcaster[T]{
		subs:         make(map[*Subscription[T]]struct{}),
		maxListeners: c.maxListeners,
	}
}

// Publish records v as the latest value and offers it to every listener.
// Returns false once the broadcaster is closed.
func (b *Broadcaster[T]) Publish(_ context.Context, v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.latest = v
	b.hasLatest = true
	for s := range b.subs {
		offer(s.ch, v)
	}
	return true
}

// offer puts v in the mailbox, replacing an unread value. Callers hold the
// write lock, so no other sender races for the slot.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
		metrics.RecordStreamCoalesced()
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Subscribe attaches a listener. When a value was already published the
// mailbox starts with it.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if len(b.subs) >= b.maxListeners {
		return nil, ErrTooManyListeners
	}
	s := &Subscription[T]{ch: make(chan T, 1), b: b}
	if b.hasLatest {
		s.ch <- b.latest
	}
	b.subs[s] = struct{}{}
	metrics.UpdateStreamListeners(len(b.subs))
	return s, nil
}

// C returns the mailbox channel. It is closed when the subscription or
// the broadcaster is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
	metrics.UpdateStreamListeners(len(b.subs))
}

// Len returns the number of attached listeners.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close detaches every listener and rejects further publishes.
func (b *Broadcaster[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
	}
	clear(b.subs)
	metrics.UpdateStreamListeners(0)
	return nil
}

// IsClosed returns true if the broadcaster has been closed.
func (b *Broadcaster[T]) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
