package document_test

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/leaflet/pkg/document"
)

func TestDocument(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Suite")
}

var _ = Describe("Chunker", func() {
	Describe("NewChunker", func() {
		It("rejects overlap equal to chunk size", func() {
			_, err := document.NewChunker(100, 100)
			Expect(errors.Is(err, document.ErrInvalidChunking)).To(BeTrue())
		})

		It("rejects overlap greater than chunk size", func() {
			_, err := document.NewChunker(100, 150)
			Expect(errors.Is(err, document.ErrInvalidChunking)).To(BeTrue())
		})

		It("falls back to defaults for zero values", func() {
			c, err := document.NewChunker(0, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).NotTo(BeNil())
		})
	})

	Describe("Chunk", func() {
		It("yields a single chunk when content is shorter than the window", func() {
			c, err := document.NewChunker(100, 20)
			Expect(err).NotTo(HaveOccurred())

			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: "short text"}})
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Text).To(Equal("short text"))
			Expect(chunks[0].Page).To(Equal(1))
		})

		It("yields a single chunk when content exactly fills the window", func() {
			c, err := document.NewChunker(10, 2)
			Expect(err).NotTo(HaveOccurred())

			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: "0123456789"}})
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Text).To(Equal("0123456789"))
		})

		It("does not emit a tail chunk contained in the previous one", func() {
			c, err := document.NewChunker(10, 2)
			Expect(err).NotTo(HaveOccurred())

			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: "0123456789abcdefgh"}})
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[1].Text).To(Equal("89abcdefgh"))
		})

		It("overlaps consecutive chunks by the configured amount", func() {
			c, err := document.NewChunker(10, 4)
			Expect(err).NotTo(HaveOccurred())

			content := "abcdefghijklmnopqrstuvwxyz"
			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: content}})

			Expect(len(chunks)).To(BeNumerically(">", 1))
			Expect(chunks[0].Text).To(Equal("abcdefghij"))
			Expect(chunks[1].Text).To(Equal("ghijklmnop"))

			// Each chunk starts where the previous one ended minus the overlap.
			for i := 1; i < len(chunks); i++ {
				prev := chunks[i-1].Text
				Expect(strings.HasPrefix(chunks[i].Text, prev[len(prev)-4:])).To(BeTrue())
			}
		})

		It("reconstructs the original content when overlap is stripped", func() {
			c, err := document.NewChunker(50, 10)
			Expect(err).NotTo(HaveOccurred())

			content := strings.Repeat("the quick brown fox jumps over the lazy dog ", 8)
			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: content}})

			var rebuilt strings.Builder
			rebuilt.WriteString(chunks[0].Text)
			for i := 1; i < len(chunks); i++ {
				rebuilt.WriteString(chunks[i].Text[10:])
			}
			Expect(rebuilt.String()).To(Equal(content))
		})

		It("propagates page numbers onto every chunk", func() {
			c, err := document.NewChunker(10, 2)
			Expect(err).NotTo(HaveOccurred())

			pages := []document.PageContent{
				{Page: 1, Content: strings.Repeat("a", 25)},
				{Page: 2, Content: strings.Repeat("b", 25)},
			}
			chunks := c.Chunk(pages)

			for _, chunk := range chunks {
				switch chunk.Text[0] {
				case 'a':
					Expect(chunk.Page).To(Equal(1))
				case 'b':
					Expect(chunk.Page).To(Equal(2))
				}
			}
		})

		It("preserves chunk order within a page", func() {
			c, err := document.NewChunker(10, 0)
			Expect(err).NotTo(HaveOccurred())

			chunks := c.Chunk([]document.PageContent{{Page: 1, Content: "0123456789abcdefghij"}})
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].Text).To(Equal("0123456789"))
			Expect(chunks[1].Text).To(Equal("abcdefghij"))
		})

		It("skips pages with empty content", func() {
			c, err := document.NewChunker(10, 2)
			Expect(err).NotTo(HaveOccurred())

			chunks := c.Chunk([]document.PageContent{
				{Page: 1, Content: ""},
				{Page: 2, Content: "hello"},
			})
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Page).To(Equal(2))
		})
	})
})

var _ = Describe("ExtractText", func() {
	It("wraps raw text as page 1", func() {
		pages := document.ExtractText("some plain text")
		Expect(pages).To(HaveLen(1))
		Expect(pages[0].Page).To(Equal(1))
		Expect(pages[0].Content).To(Equal("some plain text"))
	})

	It("yields nothing for whitespace-only text", func() {
		Expect(document.ExtractText("  \n\t ")).To(BeEmpty())
	})
})
