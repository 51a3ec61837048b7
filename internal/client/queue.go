package client

import (
	"sync"
	"time"
)

// admissionQueue bounds the number of concurrently in-flight requests. It is
// a FIFO dispatcher: submitted jobs wait in order, at most maxActive run at
// once, and consecutive dispatches are spaced apart to avoid request bursts.
type admissionQueue struct {
	mu        sync.Mutex
	pending   []func()
	active    int
	maxActive int
	spacing   time.Duration
	// cooling is true inside the spacing window after a dispatch; the next
	// dispatch waits until the window elapses.
	cooling bool
}

func newAdmissionQueue(maxActive int, spacing time.Duration) *admissionQueue {
	return &admissionQueue{maxActive: maxActive, spacing: spacing}
}

// Submit enqueues fn and dispatches it as soon as a slot is free.
func (q *admissionQueue) Submit(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.dispatch()
}

// InFlight returns the number of jobs currently running.
func (q *admissionQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Waiting returns the number of jobs queued but not yet dispatched.
func (q *admissionQueue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *admissionQueue) dispatch() {
	q.mu.Lock()
	if q.cooling || q.active >= q.maxActive || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	fn := q.pending[0]
	q.pending = q.pending[1:]
	q.active++
	q.cooling = q.spacing > 0
	q.mu.Unlock()

	go func() {
		fn()
		q.mu.Lock()
		q.active--
		q.mu.Unlock()
		q.dispatch()
	}()

	if q.spacing > 0 {
		time.AfterFunc(q.spacing, func() {
			q.mu.Lock()
			q.cooling = false
			q.mu.Unlock()
			q.dispatch()
		})
	}
}
