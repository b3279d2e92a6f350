// Package dispatch runs background incident processing on a bounded worker
// pool. Submission is non-blocking so intake latency never depends on the
// processing backlog.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher hands incident ids off for asynchronous processing.
type Dispatcher interface {
	Submit(id uuid.UUID) bool
}

// Job processes one incident id.
type Job func(ctx context.Context, id uuid.UUID)

// Pool is a fixed-size worker pool draining a buffered queue of incident
// ids. Queue capacity bounds memory; a full queue rejects submissions rather
// than blocking the caller.
type Pool struct {
	workers    int
	queue      chan uuid.UUID
	job        Job
	logger     *slog.Logger
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, capacity int, job Job, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		queue:      make(chan uuid.UUID, capacity),
		job:        job,
		logger:     logger.With("system", "dispatch"),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Info("dispatch pool started", "workers", p.workers, "capacity", cap(p.queue))
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.job(p.ctx, id)
		}
	}
}

// Submit queues an incident for processing. Returns false if the pool is
// shut down or the queue is full; the incident stays PENDING and can be
// reprocessed later. Safe to call concurrently with Shutdown; the closed
// flag and the channel close share the pool mutex.
func (p *Pool) Submit(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	select {
	case p.queue <- id:
		return true
	default:
		p.logger.Warn("dispatch queue full, incident left pending", "id", id)
		return false
	}
}

// Shutdown stops accepting work and waits for in-flight jobs, bounded by the
// context deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelFunc()
		return nil
	case <-ctx.Done():
		p.cancelFunc()
		return ctx.Err()
	}
}
