package document

import (
	"errors"
	"fmt"
)

// ErrInvalidChunking reports a chunker configuration whose window could
// never advance.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

const (
	// DefaultChunkSize is the sliding window size in characters.
	DefaultChunkSize = 500

	// DefaultOverlap is the number of characters shared between
	// consecutive chunks of the same page.
	DefaultOverlap = 100
)

// Chunker splits page-tagged text into fixed-size overlapping windows.
// Each page is chunked independently: the window starts at 0 and advances
// by ChunkSize - Overlap until it reaches the end of the page content.
//
// Chunking is a strict character slice. Chunks may split mid-word; no
// sentence or word boundary detection is attempted.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap.
// Zero or negative values fall back to the defaults. An overlap greater
// than or equal to the chunk size would never advance the window, so it is
// rejected as a configuration error.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunking, overlap, chunkSize)
	}

	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Chunk splits the given pages into ordered chunks. Chunk order within a
// page is preserved and every chunk carries its source page number. Pages
// with empty content yield no chunks.
func (c *Chunker) Chunk(pages []PageContent) []Chunk {
	var chunks []Chunk
	for _, page := range pages {
		for _, text := range c.split(page.Content) {
			chunks = append(chunks, Chunk{
				Page: page.Page,
				Text: text,
			})
		}
	}
	return chunks
}

// split slides the window across a single page's content. Content shorter
// than the window yields exactly one chunk containing the whole content.
// The walk stops at the first chunk that reaches the end of the content;
// any further window would be wholly contained in it.
func (c *Chunker) split(content string) []string {
	if content == "" {
		return nil
	}

	var out []string
	step := c.chunkSize - c.overlap

	for start := 0; start < len(content); start += step {
		end := start + c.chunkSize
		if end > len(content) {
			end = len(content)
		}
		out = append(out, content[start:end])
		if end == len(content) {
			break
		}
	}

	return out
}
