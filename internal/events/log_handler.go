package events

import (
	"context"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

// LogHandler writes events to the log instead of a queue. It stands in when
// no SQS queue is configured, so local setups still drain the outbox.
type LogHandler struct {
	logger *logging.Logger
}

func NewLogHandler(logger *logging.Logger) *LogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(_ context.Context, entry OutboxEntry) error {
	h.logger.Info("event delivered to log",
		"event_id", entry.ID,
		"org_id", entry.OrgID,
		"type", entry.Type,
	)
	return nil
}
