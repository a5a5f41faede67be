package progress

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// DocumentSummary is one document's summary within a meeting report.
type DocumentSummary struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Summary    string `json:"summary"`
}

// MeetingReport is the self-contained result carried by the terminal
// "complete" event of a meeting summarize stream.
type MeetingReport struct {
	MeetingID         string            `json:"meeting_id"`
	DocumentSummaries []DocumentSummary `json:"document_summaries"`
	OverallReport     string            `json:"overall_report"`
}

// MeetingSummary is the accumulated view of a single-meeting summarize run:
// per-document summaries first, then one overall report.
type MeetingSummary struct {
	Current         int    `json:"current"`
	Total           int    `json:"total"`
	CurrentDocument string `json:"current_document"`

	// Summaries accumulates the informational document_summary events.
	// The terminal payload is self-contained, so these only feed live UI.
	Summaries []DocumentSummary `json:"summaries,omitempty"`

	// Report is set by the terminal "complete" event.
	Report *MeetingReport `json:"report,omitempty"`

	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Terminal reports whether the summarize run reached complete or error.
func (s MeetingSummary) Terminal() bool {
	return s.Completed || s.Error != ""
}

// Failed reports whether the run ended on a server error.
func (s MeetingSummary) Failed() bool {
	return s.Error != ""
}

type meetingProgressPayload struct {
	Current         int    `json:"current"`
	Total           int    `json:"total"`
	CurrentDocument string `json:"current_document"`
}

// Apply folds one stream event into the summarize state. document_summary
// and overall_report are tolerated as informational: the terminal payload
// repeats everything they carry.
func (s MeetingSummary) Apply(ev sse.Event) (MeetingSummary, error) {
	if s.Terminal() {
		return s, nil
	}

	switch ev.Type {
	case EventProgress:
		var p meetingProgressPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding progress payload: %w", err)
		}
		if p.Current > s.Current {
			s.Current = p.Current
		}
		if p.Total > 0 {
			s.Total = p.Total
		}
		if p.CurrentDocument != "" {
			s.CurrentDocument = p.CurrentDocument
		}
		return s, nil

	case EventDocumentSummary:
		var p DocumentSummary
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding document_summary payload: %w", err)
		}
		s.Summaries = append(append([]DocumentSummary(nil), s.Summaries...), p)
		return s, nil

	case EventOverallReport:
		// Informational preview of the overall report; the complete payload
		// is authoritative.
		return s, nil

	case EventComplete:
		var p MeetingReport
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding complete payload: %w", err)
		}
		s.Report = &p
		s.Completed = true
		s.CurrentDocument = ""
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
