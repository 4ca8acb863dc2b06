// Package document provides the page-tagged text model for ingested files
// and the chunker that splits page content into overlapping windows for
// embedding and retrieval.
package document

import "errors"

var (
	// ErrUnsupportedType is returned when a file's extension is not a
	// recognized document format.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmptyDocument is returned when extraction produces no text at all.
	ErrEmptyDocument = errors.New("no text extracted from document")
)

// PageContent is the raw extracted text for a single page of a document.
// Pages are 1-based. Unpaginated formats (plain text, markdown) are modeled
// as a single page 1.
type PageContent struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// Chunk is a bounded substring of a page's text, the unit of embedding and
// retrieval. The page number propagates unchanged from the source page.
type Chunk struct {
	Page int
	Text string
}
