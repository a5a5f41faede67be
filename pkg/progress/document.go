package progress

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// Pipeline stages a document moves through. The stream reports the current
// stage on every "status" event; "indexed" and "error" are terminal.
const (
	DocStatusPending    = "pending"
	DocStatusParsing    = "parsing"
	DocStatusChunking   = "chunking"
	DocStatusEmbedding  = "embedding"
	DocStatusIndexed    = "indexed"
	DocStatusError      = "error"
)

// DocumentStatus is the accumulated view of a single document's processing
// pipeline.
type DocumentStatus struct {
	// Status is the current pipeline stage.
	Status string `json:"status"`

	// Progress is the stage-independent completion fraction, 0..1.
	Progress float64 `json:"progress"`

	// Message is the server's human-readable description of the stage.
	Message string `json:"message"`

	// Error holds the terminal failure message when Status is "error".
	Error string `json:"error,omitempty"`
}

// Terminal reports whether the document has reached a final pipeline stage.
func (s DocumentStatus) Terminal() bool {
	return s.Status == DocStatusIndexed || s.Status == DocStatusError
}

// Failed reports whether the document ended in the error stage.
func (s DocumentStatus) Failed() bool {
	return s.Status == DocStatusError
}

type documentStatusPayload struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Error    string  `json:"error"`
}

// Apply folds one stream event into the status. Events after a terminal
// stage are ignored; a malformed payload leaves the state unchanged and
// returns the decode error.
func (s DocumentStatus) Apply(ev sse.Event) (DocumentStatus, error) {
	if s.Terminal() {
		return s, nil
	}

	switch ev.Type {
	case EventStatus:
		var p documentStatusPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding status payload: %w", err)
		}

		s.Status = p.Status
		s.Message = p.Message
		// Progress never moves backwards before terminal.
		if p.Progress > s.Progress {
			s.Progress = p.Progress
		}
		if p.Status == DocStatusError {
			s.Error = p.Error
			if s.Error == "" {
				s.Error = p.Message
			}
		}
		if p.Status == DocStatusIndexed {
			s.Progress = 1
		}
		return s, nil

	case EventError:
		var p errorPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding error payload: %w", err)
		}
		s.Status = DocStatusError
		s.Error = p.text()
		return s, nil

	default:
		return s, nil
	}
}
