// Package invalidation drains cache-invalidation events off a bounded
// in-memory queue and issues the per-user prefix deletes they describe.
//
// Any mutation to a user's profile, skills, or matches must invalidate
// every cached entry keyed under that user across the match-result and
// analytics namespaces. The queue decouples that from the mutation path;
// when the queue is full the caller falls back to a synchronous delete so
// an invalidation is never lost.
package invalidation

import (
	"context"
	"sync"

	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// defaultQueueCapacity bounds the pending invalidation backlog.
const defaultQueueCapacity = 4096

// Event names one user whose cached entries must be dropped from the
// given namespaces.
type Event struct {
	UserID     string
	Namespaces []string
}

// QueueOption applies a configuration option to the Queue.
type QueueOption func(*Queue)

// WithCapacity bounds the queue backlog.
func WithCapacity(capacity int) QueueOption {
	return func(q *Queue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics
// for invalidation events.
type Queue struct {
	events   chan Event
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a bounded invalidation queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	return q
}

// Enqueue adds an event without blocking. It reports false when the queue
// is closed or full; the caller must then invalidate synchronously.
func (q *Queue) Enqueue(ctx context.Context, e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.events <- e:
		metrics.UpdateInvalidationQueueSize(len(q.events))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Dequeue returns the channel workers receive events on. The channel is
// closed when the queue is closed.
func (q *Queue) Dequeue() <-chan Event {
	return q.events
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Close stops the queue. Pending events remain readable until drained.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.events)
	return nil
}
