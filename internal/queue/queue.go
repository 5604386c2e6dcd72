// Package queue implements the Queue Manager (C8): named FIFO string
// queues with optional insertion-time dedup memory and subscriber
// fan-out.
package queue

import (
	"sync"

	"github.com/trybotster/rulebot/internal/action"
	"github.com/trybotster/rulebot/internal/chanutil"
)

type listener struct {
	id int
	ch chan<- string
}

type namedQueue struct {
	items   []string
	dedup   map[string]struct{} // nil unless this queue has ever been enqueued with dedup
	subs    []listener
	nextSub int
}

// Manager is the single shared mutable resource behind one writer lock
// (§3, §5): readers obtain independent receiving ends via Subscribe, but
// every mutation goes through Manager's own mutex.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*namedQueue
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{queues: make(map[string]*namedQueue)}
}

// Create registers a queue if it doesn't already exist. Idempotent.
func (m *Manager) Create(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrCreate(name)
}

func (m *Manager) getOrCreate(name string) *namedQueue {
	q, ok := m.queues[name]
	if !ok {
		q = &namedQueue{}
		m.queues[name] = q
	}
	return q
}

// Enqueue appends item to name's queue and notifies live subscribers.
func (m *Manager) Enqueue(name, item string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.getOrCreate(name)
	q.items = append(q.items, item)
	q.notify(item)
	return nil
}

// EnqueueDedupe appends item only if it has never been inserted into
// name's queue before, returning whether it was accepted. A dedup queue
// never stores two items with identical content across its lifetime
// (§4.5 invariant) — the dedup memory persists even if the item is later
// consumed conceptually (this Manager has no consume operation; items
// are read via Subscribe, not popped).
func (m *Manager) EnqueueDedupe(name, item string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.getOrCreate(name)
	if q.dedup == nil {
		q.dedup = make(map[string]struct{})
	}
	if _, seen := q.dedup[item]; seen {
		return false, nil
	}
	q.dedup[item] = struct{}{}
	q.items = append(q.items, item)
	q.notify(item)
	return true, nil
}

// EnqueueLines splits text into non-blank lines and enqueues each in
// order, returning the count enqueued.
func (m *Manager) EnqueueLines(name, text string) int {
	lines := action.NonBlankLines(text)
	for _, line := range lines {
		_ = m.Enqueue(name, line)
	}
	return len(lines)
}

// EnqueueLinesDedup is EnqueueLines with dedup semantics per line,
// returning the count actually accepted.
func (m *Manager) EnqueueLinesDedup(name, text string) int {
	accepted := 0
	for _, line := range action.NonBlankLines(text) {
		ok, _ := m.EnqueueDedupe(name, line)
		if ok {
			accepted++
		}
	}
	return accepted
}

// notify delivers item to every live subscriber of q. Must be called
// with m.mu held. Subscriber delivery goes through an unbounded channel
// (internal/chanutil), so this send can't block on a slow reader — the
// channel's own pump goroutine absorbs items into its internal queue
// regardless of whether anything is draining the receive side yet
// (§4.5 invariant: a producer must never block on a subscriber).
// Subscribers that are done MUST call Unsubscribe themselves; Go gives a
// sender no signal that a receiver has gone away short of that, so
// "pruned lazily on next enqueue" is implemented as "pruned explicitly,
// and promptly" rather than inferred from a failed send.
func (q *namedQueue) notify(item string) {
	for _, l := range q.subs {
		l.ch <- item
	}
}

// Subscribe returns a subscriber ID (for Unsubscribe) and a receive
// channel that observes every item enqueued to name from this point
// on, in order, for as long as the subscriber stays connected.
func (m *Manager) Subscribe(name string) (int, <-chan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.getOrCreate(name)

	in, out := chanutil.Unbounded[string]()
	id := q.nextSub
	q.nextSub++
	q.subs = append(q.subs, listener{id: id, ch: in})
	return id, out
}

// Unsubscribe removes a subscriber. Already-buffered items it hasn't
// read yet are still delivered by the unbounded channel's pump before
// it closes.
func (m *Manager) Unsubscribe(name string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return
	}
	for i, l := range q.subs {
		if l.id == id {
			close(l.ch)
			q.subs = append(q.subs[:i], q.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of items name currently holds: everything
// enqueued to it, or loaded into it by LoadSnapshot (for tests and
// diagnostics).
func (m *Manager) Len(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return 0
	}
	return len(q.items)
}

// Contents returns a copy of name's current item list, in insertion
// order.
func (m *Manager) Contents(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return nil
	}
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}

// Names returns every queue name the Manager currently knows about.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	return names
}
