package feed

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO between a feed Source and the pipeline.
// Its ring doubles once it is 70% full, so Send never blocks the source.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	tail   int
	count  int
	closed bool

	// Wakes a waiting Receive; cap 1 so Send never blocks
	ready chan struct{}
	done  chan struct{}

	enqueued int64
	dequeued int64
	resizes  int
}

// QueueStats contains queue statistics.
type QueueStats struct {
	Depth    int   `json:"depth"`
	Capacity int   `json:"capacity"`
	Enqueued int64 `json:"enqueued"`
	Dequeued int64 `json:"dequeued"`
	Resizes  int   `json:"resizes"`
}

// NewQueue creates a queue with the given initial capacity.
func NewQueue[T any](initialCapacity int) *Queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Queue[T]{
		buf:   make([]T, initialCapacity),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Send appends item. Returns false once the queue is closed.
func (q *Queue[T]) Send(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}

	threshold := len(q.buf) * 70 / 100
	if threshold < 1 {
		threshold = 1
	}
	if q.count+1 >= threshold {
		q.grow()
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
	q.enqueued++
	q.mu.Unlock()

	q.signal()
	return true
}

// Receive blocks until an item is available, the queue is closed and
// drained, or ctx ends. ok is false in the last two cases.
func (q *Queue[T]) Receive(ctx context.Context) (item T, ok bool) {
	for {
		if item, ok = q.TryReceive(); ok {
			return item, true
		}

		q.mu.Lock()
		closed := q.closed && q.count == 0
		q.mu.Unlock()
		if closed {
			return item, false
		}

		select {
		case <-ctx.Done():
			return item, false
		case <-q.ready:
		case <-q.done:
		}
	}
}

// TryReceive removes the head item without blocking.
func (q *Queue[T]) TryReceive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.count == 0 {
		return zero, false
	}

	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.dequeued++

	// More left: make sure another waiter wakes
	if q.count > 0 {
		q.signal()
	}
	return item, true
}

// Close stops further sends. Items already queued can still be received.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns queue statistics.
func (q *Queue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Depth:    q.count,
		Capacity: len(q.buf),
		Enqueued: q.enqueued,
		Dequeued: q.dequeued,
		Resizes:  q.resizes,
	}
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// grow doubles the ring. Must be called with q.mu held.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.buf)*2)

	if q.count > 0 {
		if q.head < q.tail {
			copy(next, q.buf[q.head:q.tail])
		} else {
			n := copy(next, q.buf[q.head:])
			copy(next[n:], q.buf[:q.tail])
		}
	}

	q.buf = next
	q.head = 0
	q.tail = q.count
	q.resizes++
}
