package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/llm"
)

// FallbackAnswer is returned verbatim when the generation provider is
// unreachable or errors. The turn still completes with this message so
// the conversation never dead-ends on a transient provider failure.
const FallbackAnswer = "Sorry, I am having trouble connecting to the AI brain right now."

// Answerer turns an assembled prompt and conversation history into an
// answer, absorbing provider failures.
type Answerer struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewAnswerer creates an answerer over the given generator.
func NewAnswerer(generator llm.Generator, logger *zap.Logger) *Answerer {
	return &Answerer{
		generator: generator,
		logger:    logger,
	}
}

// ModelName reports the underlying generator's model identifier.
func (a *Answerer) ModelName() string {
	return a.generator.ModelName()
}

// Answer generates a response for the conversation. Provider errors are
// logged and replaced with FallbackAnswer; the error never escapes.
func (a *Answerer) Answer(ctx context.Context, systemPrompt string, history []llm.Message) string {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	messages = append(messages, history...)

	answer, err := a.generator.Generate(ctx, messages)
	if err != nil {
		a.logger.Error("generation failed, returning fallback answer",
			zap.String("model", a.generator.ModelName()),
			zap.Error(err),
		)
		return FallbackAnswer
	}

	return answer
}

// AnswerStream generates a response incrementally, invoking fn per
// chunk, and returns the accumulated answer. On provider error the
// fallback is delivered through fn as a single chunk.
func (a *Answerer) AnswerStream(ctx context.Context, systemPrompt string, history []llm.Message, fn llm.StreamFunc) string {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	messages = append(messages, history...)

	var answer []byte
	err := a.generator.GenerateStream(ctx, messages, func(chunk string) error {
		answer = append(answer, chunk...)
		return fn(chunk)
	})
	if err != nil {
		a.logger.Error("streaming generation failed, returning fallback answer",
			zap.String("model", a.generator.ModelName()),
			zap.Error(err),
		)
		// Deliver the fallback downstream too so the client sees it.
		_ = fn(FallbackAnswer)
		return FallbackAnswer
	}

	return string(answer)
}
