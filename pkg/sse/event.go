// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// decoder for the docuwatch client. It parses events incrementally from the
// chunked byte stream of a long-lived text/event-stream response, so chunk
// boundaries may fall anywhere: mid-line, mid-field, or mid-codepoint.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DefaultType is the event type assigned to frames that carry no "event:"
// field, per the SSE spec.
const DefaultType = "message"

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// Frames without an "event:" field get DefaultType.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}
