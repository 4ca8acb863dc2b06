package rag_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/llm"
	"github.com/papercomputeco/leaflet/pkg/rag"
	testutils "github.com/papercomputeco/leaflet/pkg/utils/test"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

var errProvider = errors.New("provider unavailable")

func TestRag(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rag Suite")
}

var _ = Describe("BuildContext", func() {
	It("labels each chunk with its source page", func() {
		results := []vector.QueryResult{
			{Text: "The mitochondria is the powerhouse of the cell.", Page: 3, Score: 0.9},
			{Text: "ATP synthesis happens across the inner membrane.", Page: 7, Score: 0.5},
		}

		context := rag.BuildContext(results)

		Expect(context).To(Equal(
			"[Page 3]: The mitochondria is the powerhouse of the cell.\n\n" +
				"[Page 7]: ATP synthesis happens across the inner membrane.",
		))
	})

	It("preserves ranking order", func() {
		results := []vector.QueryResult{
			{Text: "best", Page: 2, Score: 0.9},
			{Text: "second", Page: 1, Score: 0.8},
		}

		context := rag.BuildContext(results)

		Expect(context).To(HavePrefix("[Page 2]: best"))
	})

	It("renders no results as an empty block", func() {
		Expect(rag.BuildContext(nil)).To(BeEmpty())
	})
})

var _ = Describe("BuildSystemPrompt", func() {
	It("embeds the refusal sentence and the context block", func() {
		prompt := rag.BuildSystemPrompt("[Page 1]: hello")

		Expect(prompt).To(ContainSubstring(rag.RefusalAnswer))
		Expect(prompt).To(ContainSubstring("CONTEXT:\n[Page 1]: hello"))
		Expect(prompt).To(ContainSubstring("CITATION RULE"))
	})
})

var _ = Describe("Retriever", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		store    *testutils.MockVectorDriver
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		store = testutils.NewMockVectorDriver()
	})

	It("scopes the search to the session with the default threshold and cap", func() {
		retriever := rag.NewRetriever(embedder, store, zap.NewNop())

		retriever.Retrieve(ctx, "session-1", "what is ATP?")

		Expect(store.Queries).To(HaveLen(1))
		Expect(store.Queries[0].SessionID).To(Equal("session-1"))
		Expect(store.Queries[0].Threshold).To(Equal(rag.DefaultThreshold))
		Expect(store.Queries[0].TopK).To(Equal(vector.DefaultTopK))
	})

	It("returns the store's results best first", func() {
		store.Results = []vector.QueryResult{
			{Text: "alpha", Page: 1, Score: 0.9},
			{Text: "beta", Page: 2, Score: 0.4},
		}
		retriever := rag.NewRetriever(embedder, store, zap.NewNop())

		results := retriever.Retrieve(ctx, "session-1", "question")

		Expect(results).To(HaveLen(2))
		Expect(results[0].Text).To(Equal("alpha"))
	})

	It("returns nothing when embedding fails", func() {
		embedder.FailOn = "broken question"
		retriever := rag.NewRetriever(embedder, store, zap.NewNop())

		results := retriever.Retrieve(ctx, "session-1", "broken question")

		Expect(results).To(BeEmpty())
		Expect(store.Queries).To(BeEmpty())
	})

	It("returns nothing when the store fails", func() {
		store.SearchErr = testutils.ErrMockVector
		retriever := rag.NewRetriever(embedder, store, zap.NewNop())

		results := retriever.Retrieve(ctx, "session-1", "question")

		Expect(results).To(BeEmpty())
	})

	It("honors threshold and topK overrides", func() {
		retriever := rag.NewRetriever(embedder, store, zap.NewNop(),
			rag.WithThreshold(0.5),
			rag.WithTopK(2),
		)

		retriever.Retrieve(ctx, "session-1", "question")

		Expect(store.Queries[0].Threshold).To(Equal(float32(0.5)))
		Expect(store.Queries[0].TopK).To(Equal(2))
	})
})

var _ = Describe("Answerer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("prepends the system prompt to the conversation", func() {
		generator := testutils.NewMockGenerator("42 [Page 1]")
		answerer := rag.NewAnswerer(generator, zap.NewNop())

		answer := answerer.Answer(ctx, "system prompt", []llm.Message{llm.UserMessage("what is the answer?")})

		Expect(answer).To(Equal("42 [Page 1]"))
		Expect(generator.Requests).To(HaveLen(1))
		Expect(generator.Requests[0][0].Role).To(Equal(llm.RoleSystem))
		Expect(generator.Requests[0][0].Content).To(Equal("system prompt"))
		Expect(generator.Requests[0][1].Role).To(Equal(llm.RoleUser))
	})

	It("returns the fallback when generation fails", func() {
		generator := testutils.NewMockGenerator("")
		generator.Err = errProvider
		answerer := rag.NewAnswerer(generator, zap.NewNop())

		answer := answerer.Answer(ctx, "system prompt", nil)

		Expect(answer).To(Equal(rag.FallbackAnswer))
	})

	It("accumulates streamed chunks into the final answer", func() {
		generator := testutils.NewMockGenerator("")
		generator.StreamChunks = []string{"The answer ", "is 42 ", "[Page 1]"}
		answerer := rag.NewAnswerer(generator, zap.NewNop())

		var chunks []string
		answer := answerer.AnswerStream(ctx, "system prompt", nil, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})

		Expect(answer).To(Equal("The answer is 42 [Page 1]"))
		Expect(chunks).To(HaveLen(3))
	})

	It("delivers the fallback through the stream on provider failure", func() {
		generator := testutils.NewMockGenerator("")
		generator.Err = errProvider
		answerer := rag.NewAnswerer(generator, zap.NewNop())

		var chunks []string
		answer := answerer.AnswerStream(ctx, "system prompt", nil, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})

		Expect(answer).To(Equal(rag.FallbackAnswer))
		Expect(chunks).To(ContainElement(rag.FallbackAnswer))
	})
})
