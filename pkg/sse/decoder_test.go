package sse

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// decodeAll feeds the whole input in one call and flushes the remainder.
func decodeAll(input string) []Event {
	d := NewDecoder()
	events := d.Feed([]byte(input))
	if ev, ok := d.Flush(); ok {
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Decoder", func() {
	Describe("Feed", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				events := decodeAll("data: hello world\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("hello world"))
				Expect(events[0].Type).To(Equal(DefaultType))
				Expect(events[0].ID).To(BeEmpty())
			})

			It("parses multiple events in order", func() {
				events := decodeAll("data: first\n\ndata: second\n\n")
				Expect(events).To(HaveLen(2))
				Expect(events[0].Data).To(Equal("first"))
				Expect(events[1].Data).To(Equal("second"))
			})

			It("parses event type", func() {
				events := decodeAll("event: document_progress\ndata: {\"progress\":50}\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("document_progress"))
				Expect(events[0].Data).To(Equal("{\"progress\":50}"))
			})

			It("parses event ID", func() {
				events := decodeAll("id: 42\ndata: hello\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].ID).To(Equal("42"))
				Expect(events[0].Data).To(Equal("hello"))
			})

			It("joins multiple data lines with newline", func() {
				events := decodeAll("data: foo\ndata: bar\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("foo\nbar"))
			})

			It("tolerates CRLF line endings", func() {
				events := decodeAll("event: chunk\r\ndata: hi\r\n\r\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("chunk"))
				Expect(events[0].Data).To(Equal("hi"))
			})
		})

		Context("with arbitrary chunk boundaries", func() {
			input := "event: chunk\ndata: Héllo\n\n" +
				"event: evidence\ndata: {\"source\":\"会議録.pdf\"}\n\n" +
				"event: done\ndata: {}\n\n"

			It("yields the same events regardless of chunking", func() {
				want := decodeAll(input)
				Expect(want).To(HaveLen(3))

				// Byte-at-a-time splits every multi-byte codepoint.
				d := NewDecoder()
				var got []Event
				for i := 0; i < len(input); i++ {
					got = append(got, d.Feed([]byte{input[i]})...)
				}
				Expect(got).To(Equal(want))
			})

			It("survives random re-chunking", func() {
				want := decodeAll(input)

				rng := rand.New(rand.NewSource(1))
				for trial := 0; trial < 50; trial++ {
					d := NewDecoder()
					var got []Event
					rest := []byte(input)
					for len(rest) > 0 {
						n := rng.Intn(len(rest)) + 1
						got = append(got, d.Feed(rest[:n])...)
						rest = rest[n:]
					}
					Expect(got).To(Equal(want))
				}
			})

			It("holds a partial frame until completed", func() {
				d := NewDecoder()
				Expect(d.Feed([]byte("event: status\ndata: {\"sta"))).To(BeEmpty())
				Expect(d.Feed([]byte("tus\":\"parsing\"}"))).To(BeEmpty())

				events := d.Feed([]byte("\n\n"))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("status"))
				Expect(events[0].Data).To(Equal("{\"status\":\"parsing\"}"))
			})
		})

		Context("with SSE comments", func() {
			It("ignores comment lines", func() {
				events := decodeAll(": keep-alive\ndata: hello\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("hello"))
			})
		})

		Context("with data field variations", func() {
			It("handles data field with no space after colon", func() {
				events := decodeAll("data:no-space\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("no-space"))
			})

			It("handles empty data field", func() {
				events := decodeAll("data:\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(BeEmpty())
			})

			It("handles data field with only a space (empty value per spec)", func() {
				events := decodeAll("data: \n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(BeEmpty())
			})
		})

		Context("edge cases", func() {
			It("returns nothing on empty input", func() {
				Expect(decodeAll("")).To(BeEmpty())
			})

			It("returns nothing on input with only blank lines", func() {
				Expect(decodeAll("\n\n\n")).To(BeEmpty())
			})

			It("skips leading blank lines before first event", func() {
				events := decodeAll("\n\ndata: hello\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("hello"))
			})

			It("ignores unknown fields", func() {
				events := decodeAll("retry: 3000\nfoo: bar\ndata: hello\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("hello"))
			})

			It("handles field with no colon", func() {
				// Per spec: if a line has no colon, the entire line is the field
				// name with an empty value. Unknown fields are ignored.
				events := decodeAll("data\n\n")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(BeEmpty())
			})
		})
	})

	Describe("Flush", func() {
		It("yields an event when the stream ends without a trailing blank line", func() {
			d := NewDecoder()
			Expect(d.Feed([]byte("data: unterminated"))).To(BeEmpty())

			ev, ok := d.Flush()
			Expect(ok).To(BeTrue())
			Expect(ev.Data).To(Equal("unterminated"))
		})

		It("reports no pending event on a cleanly terminated stream", func() {
			d := NewDecoder()
			d.Feed([]byte("data: done\n\n"))

			_, ok := d.Flush()
			Expect(ok).To(BeFalse())
		})
	})
})
