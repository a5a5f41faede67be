package progress

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// Stage labels the two phases of a multi-meeting summarize run.
type Stage string

const (
	StageProcessingMeeting Stage = "processing_meeting"
	StageIntegratedReport  Stage = "generating_integrated_report"
)

// IntegratedReport is the result carried by the terminal "complete" event of
// a multi-meeting summarize stream.
type IntegratedReport struct {
	MeetingIDs []string        `json:"meeting_ids"`
	Reports    []MeetingReport `json:"reports"`
	Integrated string          `json:"integrated_report"`
}

// MultiMeetingProgress tracks which meeting is currently being summarized,
// its ordinal position out of the total, and the switch into integrated
// report generation once every meeting is done.
type MultiMeetingProgress struct {
	CurrentMeeting   int    `json:"current_meeting"`
	TotalMeetings    int    `json:"total_meetings"`
	CurrentMeetingID string `json:"current_meeting_id"`
	Stage            Stage  `json:"stage"`

	// Optional per-meeting document counters, present when the server
	// reports them on meeting_progress events.
	DocumentsProcessed int `json:"documents_processed,omitempty"`
	TotalDocuments     int `json:"total_documents,omitempty"`

	// Report is set by the terminal "complete" event.
	Report *IntegratedReport `json:"report,omitempty"`

	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Terminal reports whether the run reached complete or error.
func (s MultiMeetingProgress) Terminal() bool {
	return s.Completed || s.Error != ""
}

// Failed reports whether the run ended on a server error.
func (s MultiMeetingProgress) Failed() bool {
	return s.Error != ""
}

type meetingStartPayload struct {
	MeetingID string `json:"meeting_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
}

type multiMeetingProgressPayload struct {
	MeetingID          string `json:"meeting_id"`
	DocumentsProcessed int    `json:"documents_processed"`
	TotalDocuments     int    `json:"total_documents"`
}

// Apply folds one stream event into the multi-meeting state.
func (s MultiMeetingProgress) Apply(ev sse.Event) (MultiMeetingProgress, error) {
	if s.Terminal() {
		return s, nil
	}

	switch ev.Type {
	case EventMeetingStart:
		var p meetingStartPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding meeting_start payload: %w", err)
		}
		s.Stage = StageProcessingMeeting
		s.CurrentMeetingID = p.MeetingID
		if p.Current > s.CurrentMeeting {
			s.CurrentMeeting = p.Current
		}
		if p.Total > 0 {
			s.TotalMeetings = p.Total
		}
		// Fresh meeting, fresh document counters.
		s.DocumentsProcessed = 0
		s.TotalDocuments = 0
		return s, nil

	case EventMeetingProgress:
		var p multiMeetingProgressPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding meeting_progress payload: %w", err)
		}
		if p.DocumentsProcessed > s.DocumentsProcessed {
			s.DocumentsProcessed = p.DocumentsProcessed
		}
		if p.TotalDocuments > 0 {
			s.TotalDocuments = p.TotalDocuments
		}
		return s, nil

	case EventMeetingComplete:
		// Informational: the next meeting_start (or integrated_report)
		// advances the state.
		return s, nil

	case EventIntegratedReport:
		s.Stage = StageIntegratedReport
		s.CurrentMeetingID = ""
		return s, nil

	case EventComplete:
		var p IntegratedReport
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding complete payload: %w", err)
		}
		s.Report = &p
		s.Completed = true
		s.CurrentMeetingID = ""
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
