package simplemedia

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// EntityCreated does nothing and returns nil
func (n *NoopEventSink) EntityCreated(ctx context.Context, e Entity) error {
	return nil
}

// EntityUpdated does nothing and returns nil
func (n *NoopEventSink) EntityUpdated(ctx context.Context, e Entity) error {
	return nil
}

// EntityDeleted does nothing and returns nil
func (n *NoopEventSink) EntityDeleted(ctx context.Context, kind Kind, id uuid.UUID) error {
	return nil
}
