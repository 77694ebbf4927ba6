// Package workqueue runs submitted work on a fixed set of goroutines in
// arrival order. Callers that cannot enqueue within the timeout are turned
// away instead of piling up behind a slow store.
package workqueue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Set of errors returned by Do.
var (
	ErrQueueTimeout = errors.New("work queue is full")
	ErrQueueClosed  = errors.New("work queue is shut down")
)

type job struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
}

// Queue manages the worker goroutines and the FIFO channel feeding them.
type Queue struct {
	jobs    chan job
	timeout time.Duration
	wg      sync.WaitGroup
	shut    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New constructs a queue and starts the workers. Depth is the number of
// jobs that can wait for a free worker.
func New(workers int, depth int, timeout time.Duration) *Queue {
	if workers < 1 {
		workers = 1
	}
	if depth < 0 {
		depth = 0
	}

	q := Queue{
		jobs:    make(chan job, depth),
		timeout: timeout,
		shut:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	q.wg.Add(workers)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for i := 0; i < workers; i++ {
		go func() {
			defer q.wg.Done()
			hasStarted <- true
			q.work()
		}()
	}

	for i := 0; i < workers; i++ {
		<-hasStarted
	}

	return &q
}

// Shutdown stops accepting work and waits for the running jobs to finish.
// Jobs still waiting in the channel are answered with ErrQueueClosed.
func (q *Queue) Shutdown() {
	q.once.Do(func() {
		close(q.shut)
		q.wg.Wait()
		close(q.done)

		for {
			select {
			case j := <-q.jobs:
				j.result <- ErrQueueClosed
			default:
				return
			}
		}
	})
}

// Len returns the number of jobs waiting for a worker.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Do enqueues fn and blocks until a worker has run it, returning its error.
// When the job cannot be enqueued within the timeout ErrQueueTimeout is
// returned and fn never runs.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{
		ctx:    ctx,
		fn:     fn,
		result: make(chan error, 1),
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case <-q.shut:
		return ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- j:
	case <-timer.C:
		return ErrQueueTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-q.shut:
		return ErrQueueClosed
	}

	select {
	case err := <-j.result:
		return err
	case <-q.done:
		select {
		case err := <-j.result:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

// =============================================================================

func (q *Queue) work() {
	for {
		select {
		case <-q.shut:
			return
		case j := <-q.jobs:
			q.run(j)
		}
	}
}

// run executes one job unless its caller gave up while it waited.
func (q *Queue) run(j job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- err
		return
	}
	j.result <- j.fn(j.ctx)
}
