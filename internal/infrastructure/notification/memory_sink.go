package notification

import (
	"context"
	"sync"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/event"
)

// MemorySink buffers published events in memory. Used by tests and the seed
// tool to observe what the engine emitted.
type MemorySink struct {
	mu     sync.Mutex
	events []*event.Event
}

// NewMemorySink creates an in-memory notification sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends the event to the buffer
func (s *MemorySink) Publish(_ context.Context, evt *event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

// Events returns a copy of the published events in publish order
func (s *MemorySink) Events() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Verify interface compliance
var _ port.NotificationSink = (*MemorySink)(nil)
