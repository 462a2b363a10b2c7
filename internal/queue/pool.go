// internal/queue/pool.go
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	dequeueWait  = 5 * time.Second
	errorBackoff = time.Second
)

// Handler processes one job. Its error is logged; the job is not retried.
type Handler func(ctx context.Context, job Job) error

// Pool runs a fixed number of workers draining a Queue.
type Pool struct {
	queue   *Queue
	workers int
	handler Handler
	wait    time.Duration
	logger  *slog.Logger
}

// NewPool creates a pool of workers that pass each job to handler.
func NewPool(queue *Queue, workers int, handler Handler, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{queue: queue, workers: workers, handler: handler, wait: dequeueWait, logger: logger}
}

// Run starts the workers and blocks until ctx is cancelled. In-flight jobs
// finish with the context they were started with.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("Starting worker pool", "workers", p.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.work(gctx, id)
			return nil
		})
	}
	err := g.Wait()
	p.logger.Info("Worker pool stopped")
	return err
}

func (p *Pool) work(ctx context.Context, id int) {
	logger := p.logger.With("worker", id)
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.queue.Dequeue(ctx, p.wait)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			logger.Error("Failed to dequeue job", "error", err)
			select {
			case <-time.After(errorBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		p.process(ctx, logger, *job)
	}
}

func (p *Pool) process(ctx context.Context, logger *slog.Logger, job Job) {
	logger = logger.With("job_id", job.ID, "task_id", job.TaskID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job handler panicked", "panic", r)
		}
	}()

	// Jobs run to completion even after shutdown begins.
	if err := p.handler(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("Job failed", "error", err)
		return
	}
	logger.Debug("Job finished")
}
