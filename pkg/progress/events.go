// Package progress defines the event vocabulary of the docuwatch backend's
// five long-running operations and a pure reducer per operation that folds
// incoming stream events into a single coherent progress value.
//
// Reducers share three rules:
//   - exactly one terminal transition per operation instance; events arriving
//     after terminal are ignored (defends against duplicate delivery or late
//     frames arriving after close was requested)
//   - progress counters never decrease before terminal
//   - a malformed JSON payload is reported as an error with the state left
//     unchanged, so the caller can log it and keep consuming the stream
package progress

// OperationKind identifies one of the backend's long-running operations.
type OperationKind string

const (
	KindDocument     OperationKind = "document"
	KindBatch        OperationKind = "batch"
	KindMeeting      OperationKind = "meeting"
	KindMultiMeeting OperationKind = "multi_meeting"
	KindQA           OperationKind = "qa"
)

// Event names, grouped per operation. Each operation's stream carries a
// closed set of these; the transport does not enforce ordering, the reducers
// tolerate any arrival order.
const (
	// Shared terminal failure event. Carries the server's message verbatim.
	EventError = "error"

	// Document processing.
	EventStatus = "status"

	// Batch processing.
	EventBatchStart       = "batch_start"
	EventDocumentStart    = "document_start"
	EventDocumentProgress = "document_progress"
	EventDocumentComplete = "document_complete"
	EventBatchComplete    = "batch_complete"

	// Meeting summarize.
	EventProgress        = "progress"
	EventDocumentSummary = "document_summary"
	EventOverallReport   = "overall_report"
	EventComplete        = "complete"

	// Multi-meeting summarize (shares progress/complete-style names with
	// meeting summarize where the payloads coincide).
	EventMeetingStart     = "meeting_start"
	EventMeetingProgress  = "meeting_progress"
	EventMeetingComplete  = "meeting_complete"
	EventIntegratedReport = "integrated_report"

	// Question answering.
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventChunk      = "chunk"
	EventEvidence   = "evidence"
	EventDone       = "done"
)

// Events returns the closed set of event names the given operation's stream
// can carry. Callers use it to register stream listeners.
func (k OperationKind) Events() []string {
	switch k {
	case KindDocument:
		return []string{EventStatus, EventError}
	case KindBatch:
		return []string{
			EventBatchStart,
			EventDocumentStart,
			EventDocumentProgress,
			EventDocumentComplete,
			EventBatchComplete,
			EventError,
		}
	case KindMeeting:
		return []string{
			EventProgress,
			EventDocumentSummary,
			EventOverallReport,
			EventComplete,
			EventError,
		}
	case KindMultiMeeting:
		return []string{
			EventMeetingStart,
			EventMeetingProgress,
			EventMeetingComplete,
			EventIntegratedReport,
			EventComplete,
			EventError,
		}
	case KindQA:
		return []string{
			EventToolCall,
			EventToolResult,
			EventChunk,
			EventEvidence,
			EventDone,
			EventError,
		}
	default:
		return nil
	}
}

// errorPayload is the shared shape of the terminal "error" event.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// text returns the server-supplied failure message, preferring the "error"
// field. Falls back to a fixed string so a terminal failure is never silent.
func (p errorPayload) text() string {
	switch {
	case p.Error != "":
		return p.Error
	case p.Message != "":
		return p.Message
	default:
		return "operation failed"
	}
}
