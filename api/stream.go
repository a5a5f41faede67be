package api

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
)

// streamScript plays a job's script as an SSE response, then marks the job
// finished so status polls agree with what the stream delivered.
//
// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
// SetBodyStreamWriter uses an internal PipeConns with a buffered channel
// and two bufio.Writers, which means Flush() in the callback only pushes
// data into the pipe, not to the TCP socket, so every event would buffer
// in memory before reaching the client. With io.Pipe, pw.Write blocks
// until fasthttp's chunked writer consumes the data, which flushes to TCP
// after every chunk and gives true per-event delivery.
func (s *Server) streamScript(c *fiber.Ctx, j *job) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	script := j.Script
	delay := s.config.StepDelay

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()

		for i, ev := range script {
			if i > 0 && delay > 0 {
				time.Sleep(delay)
			}
			frame := fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, ev.Data)
			if _, err := pw.Write([]byte(frame)); err != nil {
				// Client went away; the job still completes.
				break
			}
		}
		s.store.finishJob(j)
	}()

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}
