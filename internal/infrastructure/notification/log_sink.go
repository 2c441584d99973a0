package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/event"
)

// LogSink writes workflow events to the structured log. It stands in for a
// real delivery channel (email, chat) which consumes the same events.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a logging notification sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the event; it never fails the caller
func (s *LogSink) Publish(_ context.Context, evt *event.Event) {
	s.logger.Info("Workflow event",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type.String()),
		zap.String("expense_id", evt.ExpenseID),
		zap.String("status", evt.Status.String()),
		zap.Int("level", evt.Level),
		zap.String("role", evt.Role.String()),
	)
}

// Verify interface compliance
var _ port.NotificationSink = (*LogSink)(nil)
