package progress

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// ToolStep is one tool invocation in an agentic QA run: a tool_call event
// opens the step, the matching tool_result closes it.
type ToolStep struct {
	ID     string `json:"id,omitempty"`
	Tool   string `json:"tool"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
	Done   bool   `json:"done"`
}

// Evidence is one supporting citation streamed alongside the answer.
type Evidence struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score,omitempty"`
}

// QAStream is the accumulated view of a conversational question-answering
// run: the answer text grows chunk by chunk, tool steps and evidence arrive
// interleaved (agentic mode only for tool events).
type QAStream struct {
	// Answer is the streamed answer text, append-only until done.
	Answer string `json:"answer"`

	Steps    []ToolStep `json:"steps,omitempty"`
	Evidence []Evidence `json:"evidence,omitempty"`

	// IsStreaming is true from the first event until terminal.
	IsStreaming bool `json:"is_streaming"`

	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Terminal reports whether the run reached done or error.
func (s QAStream) Terminal() bool {
	return s.Completed || s.Error != ""
}

// Failed reports whether the run ended on a server error.
func (s QAStream) Failed() bool {
	return s.Error != ""
}

type toolCallPayload struct {
	ID    string          `json:"id"`
	Tool  string          `json:"tool"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type toolResultPayload struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

type chunkPayload struct {
	Content string `json:"content"`
}

type donePayload struct {
	Answer string `json:"answer"`
}

// Apply folds one stream event into the QA state. Chunk payloads are
// concatenated in arrival order; the transport guarantees that order matches
// the wire.
func (s QAStream) Apply(ev sse.Event) (QAStream, error) {
	if s.Terminal() {
		return s, nil
	}

	switch ev.Type {
	case EventChunk:
		var p chunkPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding chunk payload: %w", err)
		}
		s.Answer += p.Content
		s.IsStreaming = true
		return s, nil

	case EventToolCall:
		var p toolCallPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding tool_call payload: %w", err)
		}
		name := p.Tool
		if name == "" {
			name = p.Name
		}
		s.Steps = append(append([]ToolStep(nil), s.Steps...), ToolStep{
			ID:    p.ID,
			Tool:  name,
			Input: string(p.Input),
		})
		s.IsStreaming = true
		return s, nil

	case EventToolResult:
		var p toolResultPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding tool_result payload: %w", err)
		}
		s.Steps = closeStep(s.Steps, p)
		s.IsStreaming = true
		return s, nil

	case EventEvidence:
		var p Evidence
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding evidence payload: %w", err)
		}
		s.Evidence = append(append([]Evidence(nil), s.Evidence...), p)
		s.IsStreaming = true
		return s, nil

	case EventDone:
		var p donePayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding done payload: %w", err)
		}
		// The done payload may carry the authoritative full answer;
		// reconcile rather than blindly keep the accumulated chunks.
		if p.Answer != "" && p.Answer != s.Answer {
			s.Answer = p.Answer
		}
		s.Completed = true
		s.IsStreaming = false
		return s, nil

	case EventError:
		var p errorPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			return s, fmt.Errorf("decoding error payload: %w", err)
		}
		s.Error = p.text()
		s.IsStreaming = false
		return s, nil

	default:
		return s, nil
	}
}

// closeStep fills the Output of the matching open step: by ID when the
// result carries one, otherwise the earliest step still open.
func closeStep(steps []ToolStep, p toolResultPayload) []ToolStep {
	out := append([]ToolStep(nil), steps...)

	if p.ID != "" {
		for i := range out {
			if out[i].ID == p.ID && !out[i].Done {
				out[i].Output = p.Result
				out[i].Done = true
				return out
			}
		}
	}

	for i := range out {
		if !out[i].Done {
			out[i].Output = p.Result
			out[i].Done = true
			return out
		}
	}

	// A result with no matching call still gets recorded, in order.
	return append(out, ToolStep{
		ID:     p.ID,
		Tool:   p.Tool,
		Output: p.Result,
		Done:   true,
	})
}
