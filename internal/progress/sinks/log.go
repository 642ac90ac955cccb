// Package sinks provides progress.Sink implementations: structured logs,
// Prometheus collectors, and an in-memory run state snapshot.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/progress"
)

// LogSink emits structured logs for debugging progress streams.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.logger.Info("progress event",
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("phase", string(evt.Phase)),
			zap.String("source", evt.Source),
			zap.String("url", evt.URL),
			zap.Int64("links", evt.Links),
			zap.Int64("postings", evt.Postings),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
