package sse

import (
	"fmt"
	"io"
	"strings"
)

// flusher is implemented by writers that can push buffered bytes to the
// client immediately, e.g. *bufio.Writer.
type flusher interface {
	Flush() error
}

// Writer serializes events onto an SSE byte stream. If the underlying
// writer supports flushing, every event is flushed so deltas reach the
// client as they are produced.
type Writer struct {
	dest io.Writer
}

// NewWriter returns a Writer that emits SSE events to dest.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// Write serializes one event, splitting multi-line data across "data:"
// lines per the SSE spec, and terminates it with a blank line.
func (w *Writer) Write(event *Event) error {
	var b strings.Builder

	if event.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", event.Type)
	}
	if event.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", event.ID)
	}
	for _, line := range strings.Split(event.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w.dest, b.String()); err != nil {
		return err
	}

	if f, ok := w.dest.(flusher); ok {
		return f.Flush()
	}
	return nil
}
