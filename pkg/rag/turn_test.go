package rag_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/eventstream"
	"github.com/papercomputeco/leaflet/pkg/rag"
	"github.com/papercomputeco/leaflet/pkg/storage"
	testutils "github.com/papercomputeco/leaflet/pkg/utils/test"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	ingested  []*eventstream.SessionIngestedEvent
	completed []*eventstream.TurnCompletedEvent
	err       error
}

func (p *capturingPublisher) PublishSessionIngested(_ context.Context, event *eventstream.SessionIngestedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.ingested = append(p.ingested, event)
	return nil
}

func (p *capturingPublisher) PublishTurnCompleted(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.completed = append(p.completed, event)
	return nil
}

func (p *capturingPublisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*capturingPublisher)(nil)

var _ = Describe("Turn", func() {
	var (
		ctx       context.Context
		store     *testutils.MockStorageDriver
		vectors   *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		generator *testutils.MockGenerator
		publisher *capturingPublisher
		session   *storage.Session
		turn      *rag.Turn
	)

	newTurn := func() *rag.Turn {
		retriever := rag.NewRetriever(embedder, vectors, zap.NewNop())
		answerer := rag.NewAnswerer(generator, zap.NewNop())
		return rag.NewTurn(retriever, answerer, store, publisher, zap.NewNop())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = testutils.NewMockStorageDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		generator = testutils.NewMockGenerator("Photosynthesis fixes carbon [Page 2]")
		publisher = &capturingPublisher{}

		session = &storage.Session{
			ID:          uuid.NewString(),
			DisplayName: "biology.pdf",
			CreatedAt:   time.Now().UTC(),
		}
		Expect(store.CreateSession(ctx, session)).To(Succeed())

		turn = newTurn()
	})

	It("persists both sides of a completed turn", func() {
		result, err := turn.Run(ctx, session.ID, "what does photosynthesis do?")
		Expect(err).NotTo(HaveOccurred())

		Expect(result.State).To(Equal(rag.StateCompleted))
		Expect(result.Answer).To(Equal("Photosynthesis fixes carbon [Page 2]"))

		messages, err := store.ListMessages(ctx, session.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Role).To(Equal(storage.RoleUser))
		Expect(messages[0].Content).To(Equal("what does photosynthesis do?"))
		Expect(messages[1].Role).To(Equal(storage.RoleAssistant))
		Expect(messages[1].Content).To(Equal(result.Answer))
	})

	It("sends retrieved context and prior history to the generator", func() {
		vectors.Results = []vector.QueryResult{
			{Text: "Chlorophyll absorbs light.", Page: 2, Score: 0.8},
		}
		Expect(store.AppendMessage(ctx, &storage.Message{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Role:      storage.RoleUser,
			Content:   "earlier question",
			CreatedAt: time.Now().UTC(),
		})).To(Succeed())

		_, err := turn.Run(ctx, session.ID, "and the follow-up?")
		Expect(err).NotTo(HaveOccurred())

		Expect(generator.Requests).To(HaveLen(1))
		sent := generator.Requests[0]
		Expect(sent[0].Role).To(Equal("system"))
		Expect(sent[0].Content).To(ContainSubstring("[Page 2]: Chlorophyll absorbs light."))
		Expect(sent[1].Content).To(Equal("earlier question"))
		Expect(sent[len(sent)-1].Content).To(Equal("and the follow-up?"))
	})

	It("fails for an unknown session", func() {
		_, err := turn.Run(ctx, "no-such-session", "question")
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("completes with the fallback answer when the provider is down", func() {
		generator.Err = errProvider

		result, err := turn.Run(ctx, session.ID, "question")
		Expect(err).NotTo(HaveOccurred())

		Expect(result.State).To(Equal(rag.StateFailed))
		Expect(result.Answer).To(Equal(rag.FallbackAnswer))

		messages, err := store.ListMessages(ctx, session.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[1].Content).To(Equal(rag.FallbackAnswer))
	})

	It("rolls back the user message when the assistant write fails", func() {
		store.FailAppendRole = storage.RoleAssistant
		store.AppendErr = errProvider

		_, err := turn.Run(ctx, session.ID, "question")
		Expect(err).To(HaveOccurred())

		messages, listErr := store.ListMessages(ctx, session.ID)
		Expect(listErr).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())
		Expect(store.Deleted).To(HaveLen(1))
	})

	It("publishes a turn event with the retrieval size", func() {
		vectors.Results = []vector.QueryResult{
			{Text: "a", Page: 1, Score: 0.9},
			{Text: "b", Page: 2, Score: 0.8},
		}

		_, err := turn.Run(ctx, session.ID, "question")
		Expect(err).NotTo(HaveOccurred())

		Expect(publisher.completed).To(HaveLen(1))
		event := publisher.completed[0]
		Expect(event.SessionID).To(Equal(session.ID))
		Expect(event.ContextSize).To(Equal(2))
		Expect(event.Fallback).To(BeFalse())
		Expect(event.ModelName).To(Equal("mock-model"))
	})

	It("completes even when publishing fails", func() {
		publisher.err = errProvider

		result, err := turn.Run(ctx, session.ID, "question")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.State).To(Equal(rag.StateCompleted))
	})

	It("streams chunks and persists the accumulated answer", func() {
		generator.StreamChunks = []string{"Photosynthesis ", "fixes carbon ", "[Page 2]"}

		var chunks []string
		result, err := turn.RunStream(ctx, session.ID, "question", func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(chunks).To(HaveLen(3))
		Expect(result.Answer).To(Equal("Photosynthesis fixes carbon [Page 2]"))

		messages, err := store.ListMessages(ctx, session.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages[1].Content).To(Equal(result.Answer))

		Expect(publisher.completed).To(HaveLen(1))
		Expect(publisher.completed[0].Streaming).To(BeTrue())
	})
})
