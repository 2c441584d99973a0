package port

import (
	"context"

	"github.com/jding/expense-approval/internal/domain/event"
)

// NotificationSink receives workflow events. Delivery is fire-and-forget:
// the engine emits and moves on, sink failures must never fail a decision.
type NotificationSink interface {
	Publish(ctx context.Context, evt *event.Event)
}
