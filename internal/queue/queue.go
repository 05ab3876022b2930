package queue

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultCapacity is the number of pending messages a node may hold.
const DefaultCapacity = 10

var (
	// ErrFull is returned by Enqueue when the queue is at capacity and the
	// policy rejects new entries.
	ErrFull = errors.New("queue full")
	// ErrEmpty is returned by PeekFront when there is nothing to send.
	ErrEmpty = errors.New("queue empty")
)

// Policy selects what Enqueue does at capacity.
type Policy int

const (
	// RejectNew refuses the incoming entry with ErrFull.
	RejectNew Policy = iota
	// EvictOldest drops the oldest entry that is not in flight.
	EvictOldest
)

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case RejectNew:
		return "reject-new"
	case EvictOldest:
		return "evict-oldest"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "reject-new" or "evict-oldest".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject-new", "reject":
		return RejectNew, nil
	case "evict-oldest", "evict":
		return EvictOldest, nil
	default:
		return RejectNew, fmt.Errorf("invalid overflow policy: %s (expected reject-new or evict-oldest)", s)
	}
}

// Entry is a message waiting for the token.
type Entry struct {
	Payload     []byte
	Destination string
	// Attempts counts how many times the entry has been peeked for sending.
	Attempts int
}

// Queue is a bounded FIFO with a single in-flight slot at its head.
// It's safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	policy   Policy
	inFlight bool
}

// New creates a queue. A non-positive capacity selects DefaultCapacity.
func New(capacity int, policy Policy) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		policy:   policy,
	}
}

// Enqueue appends an entry. At capacity it either fails with ErrFull or, under
// EvictOldest, removes and returns the oldest entry that is not in flight.
func (q *Queue) Enqueue(e Entry) (*Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e.Payload = append([]byte(nil), e.Payload...)
	e.Attempts = 0

	var evicted *Entry
	if len(q.entries) >= q.capacity {
		if q.policy != EvictOldest {
			return nil, ErrFull
		}
		// The in-flight head is owned by the ring until its echo returns.
		victim := 0
		if q.inFlight {
			victim = 1
		}
		if victim >= len(q.entries) {
			return nil, ErrFull
		}
		old := q.entries[victim]
		evicted = &old
		q.entries = append(q.entries[:victim], q.entries[victim+1:]...)
	}

	q.entries = append(q.entries, e)
	return evicted, nil
}

// PeekFront returns a copy of the head and marks it in flight.
func (q *Queue) PeekFront() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, ErrEmpty
	}
	q.entries[0].Attempts++
	q.inFlight = true

	head := q.entries[0]
	head.Payload = append([]byte(nil), head.Payload...)
	return head, nil
}

// ConfirmDelivery removes the in-flight head. It is a no-op when nothing is
// in flight.
func (q *Queue) ConfirmDelivery() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inFlight {
		return false
	}
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	q.inFlight = false
	return true
}

// Requeue returns the in-flight head to the pending state. The entry stays at
// the front so it is the next one sent. No-op when nothing is in flight.
func (q *Queue) Requeue() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inFlight {
		return false
	}
	q.inFlight = false
	return true
}

// IsEmpty reports whether the queue holds no entries.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0
}

// Len returns the number of entries, including the in-flight one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// InFlight reports whether the head is awaiting its echo.
func (q *Queue) InFlight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Capacity returns the configured bound.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Policy returns the configured overflow policy.
func (q *Queue) Policy() Policy {
	return q.policy
}

// Snapshot returns copies of all entries in order.
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		e.Payload = append([]byte(nil), e.Payload...)
		out = append(out, e)
	}
	return out
}
