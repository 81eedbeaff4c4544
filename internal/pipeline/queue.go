// Package pipeline runs the asynchronous audit processing flow: a bounded
// queue feeding a fixed pool of workers that analyze submissions, persist
// results, and dispatch best-effort side effects (PDF report, completion
// email).
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// ErrQueueFull is returned by Enqueue when the pipeline is saturated. The API
// maps it to 503 so callers can retry rather than waiting on a hidden backlog.
var ErrQueueFull = errors.New("audit queue full")

// Queue is a bounded work queue drained by a fixed worker pool.
type Queue struct {
	jobs      chan *models.Audit
	workers   int
	processor *Processor

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewQueue creates a Queue sized from pipeline configuration.
func NewQueue(cfg *config.PipelineConfig, processor *Processor) *Queue {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}

	return &Queue{
		jobs:      make(chan *models.Audit, size),
		workers:   workers,
		processor: processor,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed by
// Stop or when ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	slog.Info("audit pipeline started", "workers", q.workers, "queue_size", cap(q.jobs))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			for {
				select {
				case audit, ok := <-q.jobs:
					if !ok {
						return
					}
					q.processor.Process(ctx, audit)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

// Enqueue hands an audit to the worker pool. It never blocks: when the queue
// is full the submission is rejected with ErrQueueFull and the caller decides
// what happens to the audit record.
func (q *Queue) Enqueue(audit *models.Audit) error {
	select {
	case q.jobs <- audit:
		return nil
	default:
		telemetry.QueueRejectionsTotal.Inc()
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight work to finish. Safe to call
// more than once.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
	slog.Info("audit pipeline stopped")
}
