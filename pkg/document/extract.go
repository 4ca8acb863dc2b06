package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractFile reads a document from disk and returns its page-tagged text.
// PDF files are extracted page by page; plain text and markdown files are
// returned as a single page 1. Pages with no text are skipped.
func ExtractFile(path string) ([]PageContent, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		return ExtractText(string(data)), nil

	case ".pdf":
		return extractPDF(path)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
}

// ExtractText wraps raw unpaginated text as a single page 1 document.
// Whitespace-only text yields no pages.
func ExtractText(text string) []PageContent {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []PageContent{{Page: 1, Content: text}}
}

// extractPDF extracts text from each page of a PDF file, preserving the
// 1-based page index on every entry.
func extractPDF(path string) ([]PageContent, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []PageContent
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", i, err)
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, PageContent{
			Page:    i,
			Content: text,
		})
	}

	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	return pages, nil
}
