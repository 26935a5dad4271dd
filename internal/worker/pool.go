// Package worker runs background jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("worker pool closed")

// Job produces one output. ctx is cancelled when the pool closes.
type Job[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one job.
type Result[T any] struct {
	JobID  string
	Output T
	Err    error
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

// Pool runs submitted jobs on workerCount goroutines and publishes their
// results on Results. At most one job per ID is queued or running at a time.
type Pool[T any] struct {
	jobs    chan jobWrapper[T]
	results chan Result[T]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// sendMu guards the jobs channel against Close while a send is in
	// flight.
	sendMu sync.RWMutex

	mu      sync.Mutex
	pending map[string]bool
	closed  bool
}

// NewPool starts workerCount workers. bufferSize bounds both the job queue
// and the unread results.
func NewPool[T any](workerCount, bufferSize int) *Pool[T] {
	workerCount = max(workerCount, 1)
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]bool),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			p.release(job.id)
			continue
		}
		output, err := job.fn(p.ctx)

		p.mu.Lock()
		delete(p.pending, job.id)
		p.mu.Unlock()

		select {
		case p.results <- Result[T]{JobID: job.id, Output: output, Err: err}:
		case <-p.ctx.Done():
		}
	}
}

// Submit queues a job, waiting for queue space until ctx is done. A job
// whose ID is already pending is skipped and reports false.
func (p *Pool[T]) Submit(ctx context.Context, id string, fn Job[T]) (bool, error) {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, ErrClosed
	}
	if p.pending[id] {
		p.mu.Unlock()
		return false, nil
	}
	p.pending[id] = true
	p.mu.Unlock()

	select {
	case p.jobs <- jobWrapper[T]{id: id, fn: fn}:
		return true, nil
	case <-ctx.Done():
		p.release(id)
		return false, ctx.Err()
	case <-p.ctx.Done():
		p.release(id)
		return false, ErrClosed
	}
}

// TrySubmit queues a job only if there is room right now.
func (p *Pool[T]) TrySubmit(id string, fn Job[T]) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.pending[id] {
		return false
	}
	select {
	case p.jobs <- jobWrapper[T]{id: id, fn: fn}:
		p.pending[id] = true
		return true
	default:
		return false
	}
}

// Pending reports whether a job with id is queued or running.
func (p *Pool[T]) Pending(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[id]
}

func (p *Pool[T]) release(id string) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// Results delivers job outcomes. It is closed by Close.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close cancels running jobs, waits for the workers and closes Results.
// Queued jobs that have not started are dropped.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.sendMu.Lock()
	close(p.jobs)
	p.sendMu.Unlock()

	p.wg.Wait()
	close(p.results)
}
