package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/docuwatchco/docuwatch/pkg/progress"
)

// errorResponse is the JSON shape of every non-success response.
type errorResponse struct {
	Error string `json:"error"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

type batchRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

type multiMeetingRequest struct {
	MeetingIDs []string `json:"meeting_ids"`
}

type qaRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Agentic   bool   `json:"agentic"`
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	return c.JSON(s.store.listDocuments())
}

func (s *Server) handleListMeetings(c *fiber.Ctx) error {
	return c.JSON(s.store.listMeetings())
}

func (s *Server) handleDocumentStatus(c *fiber.Ctx) error {
	j, ok := s.store.documentJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "document not found"})
	}
	return c.JSON(s.store.pollJob(j))
}

func (s *Server) handleDocumentStream(c *fiber.Ctx) error {
	j, ok := s.store.documentJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "document not found"})
	}
	return s.streamScript(c, j)
}

func (s *Server) handleStartBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if len(req.DocumentIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "document_ids is required"})
	}

	script := batchScript(req.DocumentIDs, s.store.filename)
	id, err := s.store.createJob("batch", script, map[string]any{
		"total": len(req.DocumentIDs), "success_count": len(req.DocumentIDs), "failed_count": 0,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to create job"})
	}

	s.log.Info("batch started", "job", id, "documents", len(req.DocumentIDs))
	return c.JSON(jobResponse{JobID: id})
}

func (s *Server) handleStartMeeting(c *fiber.Ctx) error {
	meeting, ok := s.store.meeting(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "meeting not found"})
	}

	report := s.meetingReport(meeting)
	id, err := s.store.createJob("meeting", meetingScript(meeting, report), report)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to create job"})
	}

	s.log.Info("meeting summarize started", "job", id, "meeting", meeting.ID)
	return c.JSON(jobResponse{JobID: id})
}

func (s *Server) handleStartMultiMeeting(c *fiber.Ctx) error {
	var req multiMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if len(req.MeetingIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "meeting_ids is required"})
	}

	meetings := make([]Meeting, 0, len(req.MeetingIDs))
	reports := make([]progress.MeetingReport, 0, len(req.MeetingIDs))
	for _, id := range req.MeetingIDs {
		meeting, ok := s.store.meeting(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "meeting not found: " + id})
		}
		meetings = append(meetings, meeting)
		reports = append(reports, s.meetingReport(meeting))
	}

	integrated := progress.IntegratedReport{
		MeetingIDs: req.MeetingIDs,
		Reports:    reports,
		Integrated: integratedReportText(meetings),
	}

	id, err := s.store.createJob("multi_meeting", multiMeetingScript(meetings, integrated), integrated)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to create job"})
	}

	s.log.Info("multi-meeting summarize started", "job", id, "meetings", len(meetings))
	return c.JSON(jobResponse{JobID: id})
}

func (s *Server) handleStartQA(c *fiber.Ctx) error {
	var req qaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "question is required"})
	}

	answer := cannedAnswer(req.Question)
	id, err := s.store.createJob("qa", qaScript(req.Question, answer, req.Agentic), map[string]any{
		"answer": answer,
		"evidence": []map[string]any{{
			"document_id": "doc-minutes", "source": "board-minutes.pdf",
			"page": 2, "snippet": "the motion carried unanimously",
		}},
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to create job"})
	}

	s.log.Info("qa started", "job", id, "agentic", req.Agentic)
	return c.JSON(jobResponse{JobID: id})
}

func (s *Server) handleJobStatus(c *fiber.Ctx) error {
	j, ok := s.store.lookupJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "job not found"})
	}
	return c.JSON(s.store.pollJob(j))
}

func (s *Server) handleJobStream(c *fiber.Ctx) error {
	j, ok := s.store.lookupJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "job not found"})
	}
	return s.streamScript(c, j)
}

func (s *Server) handleJobResult(c *fiber.Ctx) error {
	j, ok := s.store.lookupJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "job not found"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(j.Result)
}

// meetingReport builds the canned report for a meeting's documents.
func (s *Server) meetingReport(meeting Meeting) progress.MeetingReport {
	summaries := make([]progress.DocumentSummary, 0, len(meeting.DocumentIDs))
	for _, docID := range meeting.DocumentIDs {
		filename := s.store.filename(docID)
		summaries = append(summaries, progress.DocumentSummary{
			DocumentID: docID,
			Filename:   filename,
			Summary:    fmt.Sprintf("Key points extracted from %s.", filename),
		})
	}

	return progress.MeetingReport{
		MeetingID:         meeting.ID,
		DocumentSummaries: summaries,
		OverallReport: fmt.Sprintf("## %s\n\nDiscussion covered %d documents. All action items were assigned.",
			meeting.Title, len(meeting.DocumentIDs)),
	}
}

func integratedReportText(meetings []Meeting) string {
	titles := make([]string, 0, len(meetings))
	for _, m := range meetings {
		titles = append(titles, m.Title)
	}
	return fmt.Sprintf("## Integrated Report\n\nAcross %s: decisions were consistent and no open items conflict.",
		strings.Join(titles, ", "))
}

func cannedAnswer(question string) string {
	return fmt.Sprintf("Based on the indexed documents, the answer to %q is that the proposal was approved with funding confirmed for next quarter.",
		strings.TrimSpace(question))
}
