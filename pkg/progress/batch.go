package progress

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// BatchProgress is the accumulated view of a multi-document processing run.
//
// Invariant after every event: Processed == Success+FailedCount and
// Processed <= Total.
type BatchProgress struct {
	Total       int `json:"total"`
	Processed   int `json:"processed"`
	Success     int `json:"success"`
	FailedCount int `json:"failed"`

	// "Current" fields describe the document being worked on right now.
	CurrentDocument string `json:"current_document"`
	CurrentStatus   string `json:"current_status"`
	CurrentProgress int    `json:"current_progress"`

	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Terminal reports whether the batch reached batch_complete or a server
// error.
func (s BatchProgress) Terminal() bool {
	return s.Completed || s.Error != ""
}

// Failed reports whether the batch ended on a server error.
func (s BatchProgress) Failed() bool {
	return s.Error != ""
}

type batchStartPayload struct {
	Total int `json:"total"`
}

type batchDocumentPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Success    *bool  `json:"success"`
}

type batchCompletePayload struct {
	Total        int `json:"total"`
	SuccessCount int `json:"success_count"`
	FailedCount  int `json:"failed_count"`
}

// Apply folds one stream event into the batch state.
func (s BatchProgress) Apply(ev sse.Event) (BatchProgress, error) {
	if s.Terminal() {
		return s, nil
	}

	switch ev.Type {
	case EventBatchStart:
		var p batchStartPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding batch_start payload: %w", err)
		}
		s.Total = p.Total
		return s, nil

	case EventDocumentStart:
		p, err := decodeBatchDocument(ev)
		if err != nil {
			return s, err
		}
		s.CurrentDocument = currentDocName(p)
		s.CurrentStatus = p.Status
		s.CurrentProgress = 0
		return s, nil

	case EventDocumentProgress:
		p, err := decodeBatchDocument(ev)
		if err != nil {
			return s, err
		}
		if name := currentDocName(p); name != "" {
			s.CurrentDocument = name
		}
		if p.Status != "" {
			s.CurrentStatus = p.Status
		}
		if p.Progress > s.CurrentProgress {
			s.CurrentProgress = p.Progress
		}
		return s, nil

	case EventDocumentComplete:
		p, err := decodeBatchDocument(ev)
		if err != nil {
			return s, err
		}
		// Guard the accounting invariant against over-delivery.
		if s.Total > 0 && s.Processed >= s.Total {
			return s, nil
		}
		s.Processed++
		if p.Success != nil && !*p.Success {
			s.FailedCount++
		} else {
			s.Success++
		}
		s.CurrentProgress = 100
		return s, nil

	case EventBatchComplete:
		var p batchCompletePayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding batch_complete payload: %w", err)
		}
		// The terminal payload carries the authoritative aggregate counts.
		s.Success = p.SuccessCount
		s.FailedCount = p.FailedCount
		s.Processed = p.SuccessCount + p.FailedCount
		if p.Total > 0 {
			s.Total = p.Total
		}
		s.Completed = true
		s.CurrentDocument = ""
		s.CurrentStatus = ""
		return s, nil

	case EventError:
		var p errorPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding error payload: %w", err)
		}
		s.Error = p.text()
		return s, nil

	default:
		return s, nil
	}
}

func decodeBatchDocument(ev sse.Event) (batchDocumentPayload, error) {
	var p batchDocumentPayload
	if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
		return p, fmt.Errorf("decoding %s payload: %w", ev.Type, err)
	}
	return p, nil
}

func currentDocName(p batchDocumentPayload) string {
	if p.Filename != "" {
		return p.Filename
	}
	return p.DocumentID
}
