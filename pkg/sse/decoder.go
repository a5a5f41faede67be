package sse

import (
	"bytes"
	"strings"
)

// Decoder is an incremental, push-based SSE parser. Callers feed it raw
// bytes as they arrive from the response body; completed events come back in
// wire order. A partial frame (the unterminated remainder at the moment the
// source pauses) stays in the internal buffer until subsequent bytes
// complete it; it is never emitted prematurely and never dropped.
//
// The decoder operates on bytes and splits only on '\n', so a chunk boundary
// splitting a multi-byte UTF-8 codepoint is harmless: the halves are
// reassembled in the buffer before the line is interpreted as text.
type Decoder struct {
	buf []byte

	// current accumulates fields for the event being built.
	current  Event
	hasField bool
}

// NewDecoder returns an empty Decoder ready to be fed bytes.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends p to the internal buffer and returns every event completed
// by the newly available bytes, in the order their frames terminated.
// Feed never returns an error: unknown fields and comment lines are
// ignored per the SSE spec.
func (d *Decoder) Feed(p []byte) []Event {
	d.buf = append(d.buf, p...)

	var events []Event
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}

		line := string(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		// The spec permits CRLF line endings.
		line = strings.TrimSuffix(line, "\r")

		if ev, ok := d.feedLine(line); ok {
			events = append(events, ev)
		}
	}

	return events
}

// Flush yields the in-progress event if the stream ended without a trailing
// blank line (some servers omit it before closing the connection).
// Returns false when there is no pending event.
func (d *Decoder) Flush() (Event, bool) {
	// A trailing line without a newline still counts as a field line.
	if len(d.buf) > 0 {
		line := strings.TrimSuffix(string(d.buf), "\r")
		d.buf = nil
		if line != "" && !strings.HasPrefix(line, ":") {
			d.parseField(line)
		}
	}

	if !d.hasField {
		return Event{}, false
	}

	ev := d.finish()
	return ev, true
}

// feedLine processes one complete line and reports whether it terminated
// an event.
func (d *Decoder) feedLine(line string) (Event, bool) {
	// A blank line signals the end of the current event.
	if line == "" {
		if !d.hasField {
			// Blank line with no accumulated fields, skip (e.g. leading
			// blank lines or keep-alive newlines).
			return Event{}, false
		}
		return d.finish(), true
	}

	// Lines starting with ':' are comments.
	if strings.HasPrefix(line, ":") {
		return Event{}, false
	}

	d.parseField(line)
	return Event{}, false
}

// parseField accumulates a single non-empty, non-comment SSE line into the
// current event.
//
// Per the SSE spec, a line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func (d *Decoder) parseField(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if d.hasField && d.current.Data != "" {
			// Multiple data fields are joined with "\n".
			d.current.Data += "\n"
		}
		d.current.Data += value
		d.hasField = true
	case "event":
		d.current.Type = value
		d.hasField = true
	case "id":
		d.current.ID = value
		d.hasField = true
	default:
		// * "retry" is intentionally ignored; reconnection is handled by
		//   the fallback poller, not the wire protocol.
		// * Other unknown fields are ignored per the SSE spec.
	}
}

// finish seals the current event, applying the default type, and resets the
// accumulator for the next frame.
func (d *Decoder) finish() Event {
	ev := d.current
	if ev.Type == "" {
		ev.Type = DefaultType
	}

	d.current = Event{}
	d.hasField = false

	return ev
}
