package client

// Document is one analyzed document as listed by the backend.
type Document struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// Meeting is one meeting with its attached documents.
type Meeting struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date,omitempty"`
	DocumentIDs []string `json:"document_ids"`
}

// Job identifies a long-running server operation started over REST.
// The job's progress is consumed either from its event stream or, when the
// stream cannot be sustained, from its status endpoint.
type Job struct {
	ID string `json:"job_id"`
}

// OperationStatus is the plain (non-streaming) status snapshot of a
// document or job. Status uses the same terminal vocabulary as the stream:
// "completed"/"indexed" and "failed"/"error" are terminal, everything else
// is in-progress.
type OperationStatus struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Error    string  `json:"error,omitempty"`
}

// TerminalSuccess reports whether the status is a successful terminal state.
func (s OperationStatus) TerminalSuccess() bool {
	return s.Status == "completed" || s.Status == "indexed"
}

// TerminalFailure reports whether the status is a failed terminal state.
func (s OperationStatus) TerminalFailure() bool {
	return s.Status == "failed" || s.Status == "error"
}

// FailureMessage returns the server's failure text, falling back to the
// status message.
func (s OperationStatus) FailureMessage() string {
	if s.Error != "" {
		return s.Error
	}
	return s.Message
}

// QARequest starts a conversational question-answering job.
type QARequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`

	// Agentic enables tool use; the stream then carries tool_call and
	// tool_result events interleaved with answer chunks.
	Agentic bool `json:"agentic,omitempty"`
}

type batchRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

type multiMeetingRequest struct {
	MeetingIDs []string `json:"meeting_ids"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
