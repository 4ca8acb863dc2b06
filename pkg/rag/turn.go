package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/eventstream"
	"github.com/papercomputeco/leaflet/pkg/eventstream/nop"
	"github.com/papercomputeco/leaflet/pkg/llm"
	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// TurnState tracks a turn through its lifecycle.
type TurnState string

const (
	StateIdle       TurnState = "idle"
	StateSubmitted  TurnState = "submitted"
	StateRetrieving TurnState = "retrieving"
	StateGenerating TurnState = "generating"
	StateCompleted  TurnState = "completed"
	StateFailed     TurnState = "failed"
)

// TurnResult is the outcome of one question/answer turn.
type TurnResult struct {
	// State is StateCompleted, or StateFailed when the answer is the
	// provider-failure fallback.
	State TurnState

	// Answer is the generated (or fallback) assistant answer.
	Answer string

	// Results are the context chunks retrieval produced, best first.
	Results []vector.QueryResult

	// UserMessage and AssistantMessage are the persisted history rows.
	UserMessage      *storage.Message
	AssistantMessage *storage.Message
}

// Turn runs question/answer turns against a session: persist the user
// message, retrieve context, generate, persist the assistant message.
type Turn struct {
	retriever *Retriever
	answerer  *Answerer
	store     storage.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// NewTurn creates a turn runner. A nil publisher disables events.
func NewTurn(retriever *Retriever, answerer *Answerer, store storage.Driver, publisher eventstream.Publisher, logger *zap.Logger) *Turn {
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	return &Turn{
		retriever: retriever,
		answerer:  answerer,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Run executes a complete turn and returns its result. The user message
// is written optimistically before generation; if the assistant message
// cannot be persisted afterwards the user message is rolled back so
// history never ends on a dangling question.
func (t *Turn) Run(ctx context.Context, sessionID, question string) (*TurnResult, error) {
	return t.run(ctx, sessionID, question, nil)
}

// RunStream executes a turn, delivering answer chunks through fn as they
// are generated. Persistence happens after the stream finishes, when the
// in-progress answer is final.
func (t *Turn) RunStream(ctx context.Context, sessionID, question string, fn llm.StreamFunc) (*TurnResult, error) {
	return t.run(ctx, sessionID, question, fn)
}

func (t *Turn) run(ctx context.Context, sessionID, question string, fn llm.StreamFunc) (*TurnResult, error) {
	started := time.Now()

	if _, err := t.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	// Submitted: record the question first so generation works from the
	// same history it will be part of.
	userMessage := &storage.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      storage.RoleUser,
		Content:   question,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.store.AppendMessage(ctx, userMessage); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	// Retrieving
	results := t.retriever.Retrieve(ctx, sessionID, question)

	// Generating
	systemPrompt := BuildSystemPrompt(BuildContext(results))
	history, err := t.history(ctx, sessionID)
	if err != nil {
		t.logger.Warn("loading history failed, answering from the question alone",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		history = []llm.Message{llm.UserMessage(question)}
	}

	var answer string
	if fn != nil {
		answer = t.answerer.AnswerStream(ctx, systemPrompt, history, fn)
	} else {
		answer = t.answerer.Answer(ctx, systemPrompt, history)
	}

	assistantMessage := &storage.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      storage.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.store.AppendMessage(ctx, assistantMessage); err != nil {
		// Roll back the optimistic user message so the pair stays atomic.
		if rollbackErr := t.store.DeleteMessage(ctx, userMessage.ID); rollbackErr != nil {
			t.logger.Error("rolling back user message failed",
				zap.String("message_id", userMessage.ID),
				zap.Error(rollbackErr),
			)
		}
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	state := StateCompleted
	if answer == FallbackAnswer {
		state = StateFailed
	}

	t.publishTurnCompleted(ctx, sessionID, question, answer, len(results), fn != nil, time.Since(started))

	return &TurnResult{
		State:            state,
		Answer:           answer,
		Results:          results,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}, nil
}

// history maps the session's persisted messages into the generator's
// message format.
func (t *Turn) history(ctx context.Context, sessionID string) ([]llm.Message, error) {
	stored, err := t.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(stored))
	for _, msg := range stored {
		history = append(history, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history, nil
}

func (t *Turn) publishTurnCompleted(ctx context.Context, sessionID, question, answer string, contextSize int, streaming bool, duration time.Duration) {
	event := &eventstream.TurnCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     sessionID,
		Question:      question,
		Answer:        answer,
		ContextSize:   contextSize,
		Fallback:      answer == FallbackAnswer,
		Streaming:     streaming,
		Duration:      duration,
		DurationMs:    duration.Milliseconds(),
		ModelName:     t.answerer.ModelName(),
	}

	if err := t.publisher.PublishTurnCompleted(ctx, event); err != nil {
		t.logger.Warn("publishing turn event failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
