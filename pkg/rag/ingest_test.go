package rag_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/document"
	"github.com/papercomputeco/leaflet/pkg/rag"
	testutils "github.com/papercomputeco/leaflet/pkg/utils/test"
)

var _ = Describe("Ingestor", func() {
	var (
		ctx       context.Context
		store     *testutils.MockStorageDriver
		vectors   *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		publisher *capturingPublisher
		chunker   *document.Chunker
	)

	newIngestor := func(opts ...rag.IngestorOption) *rag.Ingestor {
		return rag.NewIngestor(chunker, embedder, vectors, store, publisher, zap.NewNop(), opts...)
	}

	pages := []document.PageContent{
		{Page: 1, Content: "Photosynthesis converts light into chemical energy."},
		{Page: 2, Content: "Chlorophyll absorbs red and blue wavelengths."},
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = testutils.NewMockStorageDriver()
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		publisher = &capturingPublisher{}

		var err error
		chunker, err = document.NewChunker(0, 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates a session and stores one embedded chunk per window", func() {
		sessionID, err := newIngestor().Ingest(ctx, "biology.pdf", pages, "owner-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(sessionID).NotTo(BeEmpty())

		session, err := store.GetSession(ctx, sessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.DisplayName).To(Equal("biology.pdf"))
		Expect(session.OwnerID).To(Equal("owner-1"))
		Expect(session.PageCount).To(Equal(2))
		Expect(session.ChunkCount).To(Equal(2))

		Expect(vectors.Documents).To(HaveLen(2))
		Expect(vectors.Documents[0].SessionID).To(Equal(sessionID))
		Expect(vectors.Documents[0].Page).To(Equal(1))
		Expect(vectors.Documents[1].Page).To(Equal(2))
		Expect(vectors.Documents[0].Embedding).NotTo(BeEmpty())
	})

	It("preserves chunk order with concurrent workers", func() {
		long := strings.Repeat("All work and no play makes Jack a dull boy. ", 60)
		sessionID, err := newIngestor(rag.WithWorkers(4)).Ingest(ctx, "novel.pdf", []document.PageContent{
			{Page: 1, Content: long},
		}, "")
		Expect(err).NotTo(HaveOccurred())

		expected := chunker.Chunk([]document.PageContent{{Page: 1, Content: long}})
		Expect(vectors.Documents).To(HaveLen(len(expected)))
		for i, doc := range vectors.Documents {
			Expect(doc.Text).To(Equal(expected[i].Text))
			Expect(doc.SessionID).To(Equal(sessionID))
		}
	})

	It("rejects an empty document", func() {
		_, err := newIngestor().Ingest(ctx, "empty.pdf", nil, "")
		Expect(err).To(MatchError(document.ErrEmptyDocument))
	})

	It("removes the session when embedding fails", func() {
		embedder.FailOn = pages[1].Content

		_, err := newIngestor().Ingest(ctx, "biology.pdf", pages, "")
		Expect(err).To(HaveOccurred())

		sessions, listErr := store.ListSessions(ctx, "")
		Expect(listErr).NotTo(HaveOccurred())
		Expect(sessions).To(BeEmpty())
		Expect(vectors.DeletedSessions).To(HaveLen(1))
	})

	It("removes the session when the vector store rejects the chunks", func() {
		vectors.AddErr = testutils.ErrMockVector

		_, err := newIngestor().Ingest(ctx, "biology.pdf", pages, "")
		Expect(err).To(MatchError(testutils.ErrMockVector))

		sessions, listErr := store.ListSessions(ctx, "")
		Expect(listErr).NotTo(HaveOccurred())
		Expect(sessions).To(BeEmpty())
	})

	It("publishes an ingest event with document counts", func() {
		sessionID, err := newIngestor().Ingest(ctx, "biology.pdf", pages, "owner-1")
		Expect(err).NotTo(HaveOccurred())

		Expect(publisher.ingested).To(HaveLen(1))
		event := publisher.ingested[0]
		Expect(event.SessionID).To(Equal(sessionID))
		Expect(event.FileName).To(Equal("biology.pdf"))
		Expect(event.OwnerID).To(Equal("owner-1"))
		Expect(event.PageCount).To(Equal(2))
		Expect(event.ChunkCount).To(Equal(2))
	})

	It("still ingests when publishing fails", func() {
		publisher.err = errProvider

		sessionID, err := newIngestor().Ingest(ctx, "biology.pdf", pages, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(sessionID).NotTo(BeEmpty())
	})
})
