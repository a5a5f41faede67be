package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/logger"
	"github.com/docuwatchco/docuwatch/pkg/progress"
	"github.com/docuwatchco/docuwatch/pkg/sse"
)

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		server = NewServer(Config{ListenAddr: ":0"}, logger.Nop())
	})

	get := func(path string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := server.app.Test(req, 5000)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	post := func(path, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := server.app.Test(req, 5000)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}

	readEvents := func(resp *http.Response) []sse.Event {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		dec := sse.NewDecoder()
		events := dec.Feed(raw)
		if ev, ok := dec.Flush(); ok {
			events = append(events, ev)
		}
		return events
	}

	startJob := func(path, body string) string {
		resp := post(path, body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var job jobResponse
		decode(resp, &job)
		Expect(job.JobID).NotTo(BeEmpty())
		return job.JobID
	}

	Describe("ping", func() {
		It("responds", func() {
			resp := get("/ping")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("corpus listing", func() {
		It("lists the seeded documents", func() {
			var docs []Document
			decode(get("/api/documents"), &docs)
			Expect(docs).To(HaveLen(3))
		})

		It("lists the seeded meetings", func() {
			var meetings []Meeting
			decode(get("/api/meetings"), &meetings)
			Expect(meetings).To(HaveLen(2))
		})
	})

	Describe("document streaming", func() {
		It("plays the pipeline to indexed", func() {
			resp := get("/api/documents/doc-budget/stream")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

			state := progress.DocumentStatus{}
			for _, ev := range readEvents(resp) {
				var err error
				state, err = state.Apply(ev)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(state.Status).To(Equal(progress.DocStatusIndexed))
			Expect(state.Progress).To(BeNumerically("==", 1))
		})

		It("returns 404 for an unknown document", func() {
			Expect(get("/api/documents/nope/stream").StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("document polling", func() {
		It("advances one pipeline stage per poll", func() {
			var first, second statusView
			decode(get("/api/documents/doc-minutes/status"), &first)
			decode(get("/api/documents/doc-minutes/status"), &second)
			Expect(first.Status).To(Equal(progress.DocStatusPending))
			Expect(second.Status).To(Equal(progress.DocStatusParsing))
		})
	})

	Describe("batch jobs", func() {
		It("streams a full run with authoritative final counts", func() {
			jobID := startJob("/api/documents/batch", `{"document_ids":["doc-budget","doc-minutes"]}`)

			state := progress.BatchProgress{}
			for _, ev := range readEvents(get("/api/jobs/" + jobID + "/stream")) {
				var err error
				state, err = state.Apply(ev)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(state.Completed).To(BeTrue())
			Expect(state.Total).To(Equal(2))
			Expect(state.Success).To(Equal(2))
			Expect(state.FailedCount).To(Equal(0))
		})

		It("rejects an empty submission", func() {
			Expect(post("/api/documents/batch", `{"document_ids":[]}`).StatusCode).
				To(Equal(http.StatusBadRequest))
		})

		It("reports terminal status after the stream has played", func() {
			jobID := startJob("/api/documents/batch", `{"document_ids":["doc-budget"]}`)
			readEvents(get("/api/jobs/" + jobID + "/stream"))

			var view statusView
			decode(get("/api/jobs/"+jobID+"/status"), &view)
			Expect(view.Status).To(Equal("completed"))
		})
	})

	Describe("meeting jobs", func() {
		It("streams summaries and a terminal report", func() {
			jobID := startJob("/api/meetings/meet-q1/summarize", "")

			state := progress.MeetingSummary{}
			for _, ev := range readEvents(get("/api/jobs/" + jobID + "/stream")) {
				var err error
				state, err = state.Apply(ev)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(state.Completed).To(BeTrue())
			Expect(state.Report).NotTo(BeNil())
			Expect(state.Report.MeetingID).To(Equal("meet-q1"))
			Expect(state.Report.DocumentSummaries).To(HaveLen(2))
		})

		It("serves the report as the job result", func() {
			jobID := startJob("/api/meetings/meet-board/summarize", "")

			var report progress.MeetingReport
			decode(get("/api/jobs/"+jobID+"/result"), &report)
			Expect(report.MeetingID).To(Equal("meet-board"))
			Expect(report.OverallReport).NotTo(BeEmpty())
		})

		It("returns 404 for an unknown meeting", func() {
			Expect(post("/api/meetings/nope/summarize", "").StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("multi-meeting jobs", func() {
		It("streams both stages and an integrated report", func() {
			jobID := startJob("/api/meetings/summarize", `{"meeting_ids":["meet-q1","meet-board"]}`)

			state := progress.MultiMeetingProgress{}
			sawIntegratedStage := false
			for _, ev := range readEvents(get("/api/jobs/" + jobID + "/stream")) {
				var err error
				state, err = state.Apply(ev)
				Expect(err).NotTo(HaveOccurred())
				if state.Stage == progress.StageIntegratedReport {
					sawIntegratedStage = true
				}
			}
			Expect(sawIntegratedStage).To(BeTrue())
			Expect(state.Completed).To(BeTrue())
			Expect(state.Report).NotTo(BeNil())
			Expect(state.Report.Reports).To(HaveLen(2))
		})
	})

	Describe("qa jobs", func() {
		It("streams chunks that reassemble into the final answer", func() {
			jobID := startJob("/api/qa", `{"question":"was the budget approved?","agentic":true}`)

			state := progress.QAStream{}
			for _, ev := range readEvents(get("/api/jobs/" + jobID + "/stream")) {
				var err error
				state, err = state.Apply(ev)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(state.Completed).To(BeTrue())
			Expect(state.Answer).To(ContainSubstring("approved"))
			Expect(state.Steps).To(HaveLen(1))
			Expect(state.Steps[0].Done).To(BeTrue())
			Expect(state.Evidence).To(HaveLen(1))
		})

		It("requires a question", func() {
			Expect(post("/api/qa", `{"question":"  "}`).StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})
