package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes events to the structured log instead of a broker. Used
// when no Pub/Sub topic is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLog creates a log-backed notifier.
func NewLog(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the event in the log.
func (n *LogNotifier) Notify(_ context.Context, event string, actorID string, detail string) error {
	n.logger.Info("pipeline event",
		zap.String("event", event),
		zap.String("actor_id", actorID),
		zap.String("detail", detail),
	)
	return nil
}
