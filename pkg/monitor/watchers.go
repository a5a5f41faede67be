package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/progress"
)

// WatchDocument tracks one document's processing pipeline.
func (m *Monitor) WatchDocument(ctx context.Context, documentID string) (*Watch[progress.DocumentStatus], error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	return track(ctx, m, progress.KindDocument, plan[progress.DocumentStatus]{
		streamURL: m.client.DocumentStreamURL(documentID),
		status: func(ctx context.Context) (client.OperationStatus, error) {
			return m.client.DocumentStatus(ctx, documentID)
		},
		merge:   mergeDocument,
		failure: func(s progress.DocumentStatus) string { return s.Error },
	})
}

// WatchBatch starts processing of the given documents and tracks the run.
func (m *Monitor) WatchBatch(ctx context.Context, documentIDs []string) (*Watch[progress.BatchProgress], error) {
	job, err := m.client.StartBatch(ctx, documentIDs)
	if err != nil {
		return nil, err
	}

	return track(ctx, m, progress.KindBatch, plan[progress.BatchProgress]{
		initial:   progress.BatchProgress{Total: len(documentIDs)},
		streamURL: m.client.JobStreamURL(job.ID),
		status:    m.jobStatus(job.ID),
		merge: func(s progress.BatchProgress, st client.OperationStatus) progress.BatchProgress {
			if s.Terminal() {
				return s
			}
			switch {
			case st.TerminalFailure():
				s.Error = st.FailureMessage()
			case st.TerminalSuccess():
				s.Completed = true
				s.CurrentDocument = ""
				s.CurrentStatus = ""
			}
			return s
		},
		failure: func(s progress.BatchProgress) string { return s.Error },
	})
}

// WatchMeeting starts summarization of one meeting and tracks the run.
func (m *Monitor) WatchMeeting(ctx context.Context, meetingID string) (*Watch[progress.MeetingSummary], error) {
	job, err := m.client.StartMeetingSummary(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	return track(ctx, m, progress.KindMeeting, plan[progress.MeetingSummary]{
		streamURL: m.client.JobStreamURL(job.ID),
		status:    m.jobStatus(job.ID),
		merge: func(s progress.MeetingSummary, st client.OperationStatus) progress.MeetingSummary {
			if s.Terminal() {
				return s
			}
			switch {
			case st.TerminalFailure():
				s.Error = st.FailureMessage()
			case st.TerminalSuccess():
				s.Completed = true
			}
			return s
		},
		failure: func(s progress.MeetingSummary) string { return s.Error },
		result: func(ctx context.Context, s progress.MeetingSummary) (progress.MeetingSummary, error) {
			raw, err := m.client.JobResult(ctx, job.ID)
			if err != nil {
				return s, err
			}
			var report progress.MeetingReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return s, fmt.Errorf("decoding meeting report: %w", err)
			}
			s.Report = &report
			return s, nil
		},
	})
}

// WatchMeetings starts summarization across several meetings and tracks the
// run through to its integrated report.
func (m *Monitor) WatchMeetings(ctx context.Context, meetingIDs []string) (*Watch[progress.MultiMeetingProgress], error) {
	job, err := m.client.StartMultiMeetingSummary(ctx, meetingIDs)
	if err != nil {
		return nil, err
	}

	return track(ctx, m, progress.KindMultiMeeting, plan[progress.MultiMeetingProgress]{
		initial:   progress.MultiMeetingProgress{TotalMeetings: len(meetingIDs)},
		streamURL: m.client.JobStreamURL(job.ID),
		status:    m.jobStatus(job.ID),
		merge: func(s progress.MultiMeetingProgress, st client.OperationStatus) progress.MultiMeetingProgress {
			if s.Terminal() {
				return s
			}
			switch {
			case st.TerminalFailure():
				s.Error = st.FailureMessage()
			case st.TerminalSuccess():
				s.Completed = true
				s.CurrentMeetingID = ""
			}
			return s
		},
		failure: func(s progress.MultiMeetingProgress) string { return s.Error },
		result: func(ctx context.Context, s progress.MultiMeetingProgress) (progress.MultiMeetingProgress, error) {
			raw, err := m.client.JobResult(ctx, job.ID)
			if err != nil {
				return s, err
			}
			var report progress.IntegratedReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return s, fmt.Errorf("decoding integrated report: %w", err)
			}
			s.Report = &report
			return s, nil
		},
	})
}

// qaResult is the final payload of a question-answering job, fetched when
// the answer had to be recovered over the poll path.
type qaResult struct {
	Answer   string              `json:"answer"`
	Evidence []progress.Evidence `json:"evidence"`
}

// Ask starts a question-answering run and tracks the streamed answer.
func (m *Monitor) Ask(ctx context.Context, req client.QARequest) (*Watch[progress.QAStream], error) {
	job, err := m.client.StartQA(ctx, req)
	if err != nil {
		return nil, err
	}

	return track(ctx, m, progress.KindQA, plan[progress.QAStream]{
		streamURL: m.client.JobStreamURL(job.ID),
		status:    m.jobStatus(job.ID),
		merge: func(s progress.QAStream, st client.OperationStatus) progress.QAStream {
			if s.Terminal() {
				return s
			}
			switch {
			case st.TerminalFailure():
				s.Error = st.FailureMessage()
				s.IsStreaming = false
			case st.TerminalSuccess():
				s.Completed = true
				s.IsStreaming = false
			}
			return s
		},
		failure: func(s progress.QAStream) string { return s.Error },
		result: func(ctx context.Context, s progress.QAStream) (progress.QAStream, error) {
			raw, err := m.client.JobResult(ctx, job.ID)
			if err != nil {
				return s, err
			}
			var res qaResult
			if err := json.Unmarshal(raw, &res); err != nil {
				return s, fmt.Errorf("decoding answer: %w", err)
			}
			if res.Answer != "" {
				s.Answer = res.Answer
			}
			if len(res.Evidence) > 0 {
				s.Evidence = res.Evidence
			}
			return s, nil
		},
	})
}

func (m *Monitor) jobStatus(jobID string) func(context.Context) (client.OperationStatus, error) {
	return func(ctx context.Context) (client.OperationStatus, error) {
		return m.client.JobStatus(ctx, jobID)
	}
}

func mergeDocument(s progress.DocumentStatus, st client.OperationStatus) progress.DocumentStatus {
	if s.Terminal() {
		return s
	}
	if st.Status != "" {
		s.Status = st.Status
	}
	if st.Message != "" {
		s.Message = st.Message
	}
	if st.Progress > s.Progress {
		s.Progress = st.Progress
	}
	switch {
	case st.TerminalFailure():
		s.Status = progress.DocStatusError
		s.Error = st.FailureMessage()
	case st.TerminalSuccess():
		s.Status = progress.DocStatusIndexed
		s.Progress = 1
	}
	return s
}
