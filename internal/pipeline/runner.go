package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ingest"
)

// ErrQueueFull is returned when the run queue cannot accept more work.
var ErrQueueFull = errors.New("run queue is full")

type runRequest struct {
	id      uuid.UUID
	sources []ingest.Source
}

// Runner serializes pipeline runs behind a queue. One worker keeps LLM
// traffic sequential regardless of how many triggers arrive.
type Runner struct {
	orchestrator *Orchestrator
	ids          ingest.IDGenerator
	queue        chan runRequest
	logger       *zap.Logger

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner creates a Runner with the given queue depth.
func NewRunner(orchestrator *Orchestrator, ids ingest.IDGenerator, queueDepth int, logger *zap.Logger) *Runner {
	if queueDepth <= 0 {
		queueDepth = 4
	}
	return &Runner{
		orchestrator: orchestrator,
		ids:          ids,
		queue:        make(chan runRequest, queueDepth),
		logger:       logger,
	}
}

// Start launches the worker. The worker exits when ctx is canceled; call
// Wait afterwards to let an in-flight run finish emitting.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.work(ctx)
	})
}

// Wait blocks until the worker goroutine has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Enqueue schedules a run over the given sources and returns its run ID.
func (r *Runner) Enqueue(sources []ingest.Source) (uuid.UUID, error) {
	if len(sources) == 0 {
		return uuid.UUID{}, errors.New("no sources to process")
	}
	raw, err := r.ids.NewID()
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("generate run id: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("parse run id: %w", err)
	}

	select {
	case r.queue <- runRequest{id: id, sources: sources}:
		return id, nil
	default:
		return uuid.UUID{}, ErrQueueFull
	}
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.queue:
			r.logger.Info("pipeline run starting",
				zap.String("run_id", req.id.String()),
				zap.Int("sources", len(req.sources)),
			)
			if err := r.orchestrator.Run(ctx, req.id, req.sources); err != nil {
				r.logger.Error("pipeline run failed",
					zap.String("run_id", req.id.String()),
					zap.Error(err),
				)
				continue
			}
			r.logger.Info("pipeline run finished", zap.String("run_id", req.id.String()))
		}
	}
}
