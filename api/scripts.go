package api

import (
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/progress"
)

// payload marshals v for a script event. Scripts are built from literals,
// so a marshal failure is a programming error.
func payload(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encoding script payload: %v", err))
	}
	return string(encoded)
}

// documentScript plays one document through the processing pipeline.
func documentScript(filename string) []scriptEvent {
	stages := []struct {
		status   string
		progress float64
		message  string
	}{
		{progress.DocStatusPending, 0, "queued"},
		{progress.DocStatusParsing, 0.25, "parsing " + filename},
		{progress.DocStatusChunking, 0.5, "splitting into chunks"},
		{progress.DocStatusEmbedding, 0.75, "embedding chunks"},
		{progress.DocStatusIndexed, 1, "indexed"},
	}

	script := make([]scriptEvent, 0, len(stages))
	for _, stage := range stages {
		view := statusView{Status: stage.status, Progress: stage.progress, Message: stage.message}
		script = append(script, scriptEvent{
			Type:   progress.EventStatus,
			Data:   payload(view),
			Status: view,
		})
	}
	return script
}

// batchScript plays a multi-document processing run. Every document
// succeeds; the demo corpus has no poison documents.
func batchScript(documentIDs []string, filenameOf func(string) string) []scriptEvent {
	total := len(documentIDs)
	script := []scriptEvent{{
		Type:   progress.EventBatchStart,
		Data:   payload(map[string]any{"total": total}),
		Status: statusView{Status: "processing", Message: fmt.Sprintf("0/%d documents", total)},
	}}

	for i, id := range documentIDs {
		filename := filenameOf(id)
		doc := map[string]any{"document_id": id, "filename": filename}

		view := statusView{
			Status:   "processing",
			Progress: float64(i) / float64(total),
			Message:  fmt.Sprintf("%d/%d documents", i, total),
		}
		script = append(script,
			scriptEvent{Type: progress.EventDocumentStart, Data: payload(doc), Status: view},
			scriptEvent{
				Type: progress.EventDocumentProgress,
				Data: payload(map[string]any{
					"document_id": id, "filename": filename,
					"status": "embedding", "progress": 60,
				}),
				Status: view,
			},
			scriptEvent{
				Type: progress.EventDocumentComplete,
				Data: payload(map[string]any{
					"document_id": id, "filename": filename, "success": true,
				}),
				Status: statusView{
					Status:   "processing",
					Progress: float64(i+1) / float64(total),
					Message:  fmt.Sprintf("%d/%d documents", i+1, total),
				},
			},
		)
	}

	script = append(script, scriptEvent{
		Type: progress.EventBatchComplete,
		Data: payload(map[string]any{
			"total": total, "success_count": total, "failed_count": 0,
		}),
		Status: statusView{Status: "completed", Progress: 1, Message: "batch complete"},
	})
	return script
}

// meetingScript plays a single-meeting summarize run ending in a report.
func meetingScript(meeting Meeting, report progress.MeetingReport) []scriptEvent {
	total := len(meeting.DocumentIDs)
	var script []scriptEvent

	for i, summary := range report.DocumentSummaries {
		view := statusView{
			Status:   "summarizing",
			Progress: float64(i) / float64(max(total, 1)),
			Message:  "summarizing " + summary.Filename,
		}
		script = append(script,
			scriptEvent{
				Type: progress.EventProgress,
				Data: payload(map[string]any{
					"current": i + 1, "total": total, "current_document": summary.Filename,
				}),
				Status: view,
			},
			scriptEvent{Type: progress.EventDocumentSummary, Data: payload(summary), Status: view},
		)
	}

	script = append(script,
		scriptEvent{
			Type:   progress.EventOverallReport,
			Data:   payload(map[string]any{"preview": report.OverallReport}),
			Status: statusView{Status: "summarizing", Progress: 0.9, Message: "writing overall report"},
		},
		scriptEvent{
			Type:   progress.EventComplete,
			Data:   payload(report),
			Status: statusView{Status: "completed", Progress: 1, Message: "report ready"},
		},
	)
	return script
}

// multiMeetingScript plays a summarize run across several meetings.
func multiMeetingScript(meetings []Meeting, report progress.IntegratedReport) []scriptEvent {
	total := len(meetings)
	var script []scriptEvent

	for i, meeting := range meetings {
		view := statusView{
			Status:   "summarizing",
			Progress: float64(i) / float64(max(total, 1)),
			Message:  "summarizing " + meeting.Title,
		}
		script = append(script,
			scriptEvent{
				Type: progress.EventMeetingStart,
				Data: payload(map[string]any{
					"meeting_id": meeting.ID, "current": i + 1, "total": total,
				}),
				Status: view,
			},
			scriptEvent{
				Type: progress.EventMeetingProgress,
				Data: payload(map[string]any{
					"meeting_id":          meeting.ID,
					"documents_processed": len(meeting.DocumentIDs),
					"total_documents":     len(meeting.DocumentIDs),
				}),
				Status: view,
			},
			scriptEvent{
				Type:   progress.EventMeetingComplete,
				Data:   payload(map[string]any{"meeting_id": meeting.ID}),
				Status: view,
			},
		)
	}

	script = append(script,
		scriptEvent{
			Type:   progress.EventIntegratedReport,
			Data:   payload(map[string]any{}),
			Status: statusView{Status: "summarizing", Progress: 0.9, Message: "integrating reports"},
		},
		scriptEvent{
			Type:   progress.EventComplete,
			Data:   payload(report),
			Status: statusView{Status: "completed", Progress: 1, Message: "integrated report ready"},
		},
	)
	return script
}

// qaScript streams a canned answer in small chunks, with one tool round
// trip and one citation when agentic.
func qaScript(question, answer string, agentic bool) []scriptEvent {
	running := statusView{Status: "running", Message: "answering"}
	var script []scriptEvent

	if agentic {
		script = append(script,
			scriptEvent{
				Type: progress.EventToolCall,
				Data: payload(map[string]any{
					"id": "step-1", "tool": "search_documents",
					"input": map[string]string{"query": question},
				}),
				Status: running,
			},
			scriptEvent{
				Type: progress.EventToolResult,
				Data: payload(map[string]any{
					"id": "step-1", "tool": "search_documents", "result": "3 passages found",
				}),
				Status: running,
			},
		)
	}

	for _, chunk := range chunked(answer, 12) {
		script = append(script, scriptEvent{
			Type:   progress.EventChunk,
			Data:   payload(map[string]string{"content": chunk}),
			Status: running,
		})
	}

	script = append(script,
		scriptEvent{
			Type: progress.EventEvidence,
			Data: payload(map[string]any{
				"document_id": "doc-minutes", "source": "board-minutes.pdf",
				"page": 2, "snippet": "the motion carried unanimously",
			}),
			Status: running,
		},
		scriptEvent{
			Type:   progress.EventDone,
			Data:   payload(map[string]string{"answer": answer}),
			Status: statusView{Status: "completed", Message: "answered"},
		},
	)
	return script
}

// chunked splits s into pieces of at most size bytes, on byte boundaries.
// The demo answers are ASCII so this never splits a rune.
func chunked(s string, size int) []string {
	var parts []string
	for len(s) > size {
		parts = append(parts, s[:size])
		s = s[size:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
