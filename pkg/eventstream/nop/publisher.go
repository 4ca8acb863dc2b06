package nop

import (
	"context"

	"github.com/papercomputeco/leaflet/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSessionIngested validates input and otherwise does nothing.
func (p *Publisher) PublishSessionIngested(_ context.Context, event *eventstream.SessionIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// PublishTurnCompleted validates input and otherwise does nothing.
func (p *Publisher) PublishTurnCompleted(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
