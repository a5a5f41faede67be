package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Document is one seeded demo document.
type Document struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// Meeting is one seeded demo meeting.
type Meeting struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date,omitempty"`
	DocumentIDs []string `json:"document_ids"`
}

// statusView is the plain status snapshot served to pollers.
type statusView struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Error    string  `json:"error,omitempty"`
}

// scriptEvent is one step of a scripted operation: the SSE event to emit
// and the plain status a poller would see once this step has happened.
type scriptEvent struct {
	Type   string
	Data   string
	Status statusView
}

// job is one scripted operation in flight. The cursor tracks how far the
// script has played; the stream plays it to the end, while each status poll
// advances it one step so poll-only clients still reach terminal.
type job struct {
	ID     string
	Kind   string
	Script []scriptEvent
	Result json.RawMessage

	cursor int
}

func (j *job) status() statusView {
	if len(j.Script) == 0 {
		return statusView{Status: "completed"}
	}
	if j.cursor >= len(j.Script) {
		return j.Script[len(j.Script)-1].Status
	}
	return j.Script[j.cursor].Status
}

func (j *job) advance() {
	if j.cursor < len(j.Script) {
		j.cursor++
	}
}

func (j *job) finish() {
	j.cursor = len(j.Script)
}

// store holds the demo server's seeded corpus and running jobs.
type store struct {
	mu        sync.Mutex
	documents []Document
	meetings  []Meeting
	docJobs   map[string]*job
	jobs      map[string]*job
}

func newStore() *store {
	s := &store{
		docJobs: make(map[string]*job),
		jobs:    make(map[string]*job),
	}
	s.seed()
	return s
}

func (s *store) seed() {
	s.documents = []Document{
		{ID: "doc-budget", Filename: "budget-2026.pdf", Status: "pending"},
		{ID: "doc-minutes", Filename: "board-minutes.pdf", Status: "pending"},
		{ID: "doc-roadmap", Filename: "product-roadmap.pdf", Status: "pending"},
	}
	s.meetings = []Meeting{
		{ID: "meet-q1", Title: "Q1 Planning", Date: "2026-01-12", DocumentIDs: []string{"doc-budget", "doc-roadmap"}},
		{ID: "meet-board", Title: "Board Review", Date: "2026-02-03", DocumentIDs: []string{"doc-minutes"}},
	}

	for _, doc := range s.documents {
		s.docJobs[doc.ID] = &job{
			ID:     doc.ID,
			Kind:   "document",
			Script: documentScript(doc.Filename),
		}
	}
}

func (s *store) listDocuments() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]Document, len(s.documents))
	copy(docs, s.documents)
	for i := range docs {
		if j, ok := s.docJobs[docs[i].ID]; ok {
			view := j.status()
			docs[i].Status = view.Status
			docs[i].Progress = view.Progress
		}
	}
	return docs
}

func (s *store) listMeetings() []Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	meetings := make([]Meeting, len(s.meetings))
	copy(meetings, s.meetings)
	return meetings
}

func (s *store) documentJob(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.docJobs[id]
	return j, ok
}

func (s *store) meeting(id string) (Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meetings {
		if m.ID == id {
			return m, true
		}
	}
	return Meeting{}, false
}

func (s *store) filename(documentID string) string {
	for _, d := range s.documents {
		if d.ID == documentID {
			return d.Filename
		}
	}
	return documentID
}

// createJob registers a scripted job and returns its id.
func (s *store) createJob(kind string, script []scriptEvent, result any) (string, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding job result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.jobs[id] = &job{
		ID:     id,
		Kind:   kind,
		Script: script,
		Result: encoded,
	}
	return id, nil
}

func (s *store) lookupJob(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// pollJob returns the job's current status and advances the script one
// step, so repeated polls walk the operation forward.
func (s *store) pollJob(j *job) statusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := j.status()
	j.advance()
	return view
}

// finishJob marks the script fully played, after the stream has emitted it.
func (s *store) finishJob(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.finish()
}
