package eventstream

import "context"

// Publisher publishes pipeline events to an event stream backend.
// Publish failures must never fail the pipeline; callers log and move on.
type Publisher interface {
	PublishSessionIngested(ctx context.Context, event *SessionIngestedEvent) error
	PublishTurnCompleted(ctx context.Context, event *TurnCompletedEvent) error
	Close() error
}
