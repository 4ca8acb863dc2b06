package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/eventstream/nop"
	"github.com/papercomputeco/leaflet/pkg/rag"
	"github.com/papercomputeco/leaflet/pkg/storage"
	testutils "github.com/papercomputeco/leaflet/pkg/utils/test"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

func TestMCP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MCP Suite")
}

var _ = Describe("NewServer", func() {
	var (
		retriever *rag.Retriever
		turn      *rag.Turn
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		store := testutils.NewMockStorageDriver()
		vectors := testutils.NewMockVectorDriver()
		embedder := testutils.NewMockEmbedder()
		generator := testutils.NewMockGenerator("answer")

		retriever = rag.NewRetriever(embedder, vectors, logger)
		turn = rag.NewTurn(retriever, rag.NewAnswerer(generator, logger), store, nop.NewPublisher(), logger)
	})

	It("creates a server with both tools", func() {
		server, err := NewServer(Config{
			Retriever: retriever,
			Turn:      turn,
			Logger:    zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(server.Handler()).NotTo(BeNil())
	})

	It("creates an empty server in noop mode", func() {
		server, err := NewServer(Config{Noop: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(server).NotTo(BeNil())
	})

	It("requires a retriever", func() {
		_, err := NewServer(Config{Turn: turn, Logger: zap.NewNop()})
		Expect(err).To(HaveOccurred())
	})

	It("requires a turn runner", func() {
		_, err := NewServer(Config{Retriever: retriever, Logger: zap.NewNop()})
		Expect(err).To(HaveOccurred())
	})

	It("requires a logger", func() {
		_, err := NewServer(Config{Retriever: retriever, Turn: turn})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("tools", func() {
	var (
		ctx       context.Context
		server    *Server
		store     *testutils.MockStorageDriver
		vectors   *testutils.MockVectorDriver
		generator *testutils.MockGenerator
		sessionID string
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := zap.NewNop()

		store = testutils.NewMockStorageDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder := testutils.NewMockEmbedder()
		generator = testutils.NewMockGenerator("ATP is produced in mitochondria [Page 4]")

		retriever := rag.NewRetriever(embedder, vectors, logger)
		turn := rag.NewTurn(retriever, rag.NewAnswerer(generator, logger), store, nop.NewPublisher(), logger)

		var err error
		server, err = NewServer(Config{
			Retriever: retriever,
			Turn:      turn,
			Logger:    logger,
		})
		Expect(err).NotTo(HaveOccurred())

		sessionID = uuid.NewString()
		Expect(store.CreateSession(ctx, &storage.Session{
			ID:          sessionID,
			DisplayName: "biology.pdf",
			CreatedAt:   time.Now().UTC(),
		})).To(Succeed())
	})

	Describe("search", func() {
		It("returns scored passages for a query", func() {
			vectors.Results = []vector.QueryResult{
				{Text: "Mitochondria produce ATP.", Page: 4, Score: 0.9},
			}

			result, output, err := server.handleSearch(ctx, nil, SearchInput{
				SessionID: sessionID,
				Query:     "where is ATP produced?",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Page).To(Equal(4))
		})

		It("rejects a missing query", func() {
			result, _, err := server.handleSearch(ctx, nil, SearchInput{SessionID: sessionID})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("ask", func() {
		It("answers and persists the turn", func() {
			result, output, err := server.handleAsk(ctx, nil, AskInput{
				SessionID: sessionID,
				Question:  "where is ATP produced?",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Answer).To(Equal("ATP is produced in mitochondria [Page 4]"))

			messages, err := store.ListMessages(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(2))
		})

		It("reports an unknown session as a tool error", func() {
			result, _, err := server.handleAsk(ctx, nil, AskInput{
				SessionID: uuid.NewString(),
				Question:  "q",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("returns the fallback answer when generation fails", func() {
			generator.Err = errors.New("provider unavailable")

			result, output, err := server.handleAsk(ctx, nil, AskInput{
				SessionID: sessionID,
				Question:  "q",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Answer).To(Equal(rag.FallbackAnswer))
			Expect(output.State).To(Equal(string(rag.StateFailed)))
		})
	})
})
