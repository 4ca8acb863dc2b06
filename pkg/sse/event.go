// Package sse implements the SSE (Server-Sent Events) framing used by the
// streaming ask endpoint: a Writer that emits events on the server side and
// a Reader that parses them back out on the client side.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single SSE event, delimited by a blank line in the
// byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// Event types emitted by the streaming ask endpoint.
const (
	// TypeMessage carries one answer delta in its data as JSON.
	TypeMessage = "message"

	// TypeDone terminates the stream. Its data is the final answer
	// payload, including the retrieval results.
	TypeDone = "done"

	// TypeError reports a stream-level failure. Its data is a JSON
	// object with an "error" field.
	TypeError = "error"
)
