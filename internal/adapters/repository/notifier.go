package repository

import (
	"sync"

	"github.com/okian/icaoscore/internal/domain/model"
)

// notifier fans snapshots out to listeners. Deliveries are serialized and
// always read the snapshot at delivery time, so listeners observe changes
// in order and never end on a stale snapshot.
type notifier struct {
	mu        sync.Mutex // guards listeners and next
	deliverMu sync.Mutex // serializes deliveries
	next      uint64
	listeners map[uint64]Listener
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[uint64]Listener)}
}

// add registers l and delivers snapshot() to it alone.
func (n *notifier) add(l Listener, snapshot func() []model.Entry) func() {
	n.deliverMu.Lock()
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = l
	n.mu.Unlock()
	l(snapshot())
	n.deliverMu.Unlock()

	// Waiting on deliverMu means no delivery reaches l once this returns.
	// It must not be called from inside a listener.
	var once sync.Once
	return func() {
		once.Do(func() {
			n.deliverMu.Lock()
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
			n.deliverMu.Unlock()
		})
	}
}

// publish delivers snapshot() to every listener.
func (n *notifier) publish(snapshot func() []model.Entry) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	ls := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		ls = append(ls, l)
	}
	n.mu.Unlock()
	if len(ls) == 0 {
		return
	}

	entries := snapshot()
	for _, l := range ls {
		l(entries)
	}
}

func (n *notifier) reset() {
	n.mu.Lock()
	clear(n.listeners)
	n.mu.Unlock()
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
