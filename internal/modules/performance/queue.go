// Package performance fetches and aggregates per-goal performance
// series from Platform A's BFF, one goal at a time, politely.
package performance

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Task is one unit of work submitted to the Queue.
type Task func(ctx context.Context) error

// Queue is a single-worker FIFO scheduler: exactly one Task runs at a
// time, paced by a rate.Limiter configured to one token per
// inter-request delay — "politely sequential" scheduling expressed as
// rate limiting rather than a hand-rolled ticker loop.
type Queue struct {
	limiter *rate.Limiter
	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewQueue creates a Queue pacing requests to at most one per delay.
// capacity bounds how many pending tasks may be buffered; once it is
// reached, Submit rejects further tasks rather than blocking.
func NewQueue(delayPerRequest rate.Limit, capacity int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		limiter: rate.NewLimiter(delayPerRequest, 1),
		tasks:   make(chan Task, capacity),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	ctx := q.ctx

	for task := range q.tasks {
		if ctx.Err() != nil {
			continue
		}
		if err := q.limiter.Wait(ctx); err != nil {
			continue
		}
		_ = task(ctx)
	}
}

// Submit enqueues task without blocking. Returns false if the queue
// has been closed or its buffer is full.
func (q *Queue) Submit(task Task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return true
	default:
		return false
	}
}

// Close cancels the in-flight task's context and drops all pending,
// unstarted items without running them.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	close(q.tasks)
	<-q.done
}
