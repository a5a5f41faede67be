package progress_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/progress"
)

var _ = Describe("MeetingSummary", func() {
	It("tracks progress through document summaries", func() {
		var s progress.MeetingSummary

		s, _ = s.Apply(ev(progress.EventProgress, `{"current":1,"total":3,"current_document":"agenda.pdf"}`))
		Expect(s.Current).To(Equal(1))
		Expect(s.Total).To(Equal(3))
		Expect(s.CurrentDocument).To(Equal("agenda.pdf"))

		s, _ = s.Apply(ev(progress.EventDocumentSummary, `{"document_id":"d1","filename":"agenda.pdf","summary":"Agenda overview"}`))
		Expect(s.Summaries).To(HaveLen(1))
		Expect(s.Summaries[0].Summary).To(Equal("Agenda overview"))
	})

	It("treats overall_report as informational", func() {
		var s progress.MeetingSummary
		before := s

		after, err := s.Apply(ev(progress.EventOverallReport, `{"overall_report":"draft"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	It("completes with a self-contained report", func() {
		var s progress.MeetingSummary
		s, _ = s.Apply(ev(progress.EventProgress, `{"current":2,"total":2,"current_document":"notes.pdf"}`))

		s, err := s.Apply(ev(progress.EventComplete, `{
			"meeting_id": "m-1",
			"document_summaries": [
				{"document_id":"d1","filename":"agenda.pdf","summary":"A"},
				{"document_id":"d2","filename":"notes.pdf","summary":"B"}
			],
			"overall_report": "Everything went fine."
		}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Report).NotTo(BeNil())
		Expect(s.Report.MeetingID).To(Equal("m-1"))
		Expect(s.Report.DocumentSummaries).To(HaveLen(2))
		Expect(s.Report.OverallReport).To(Equal("Everything went fine."))
		Expect(s.CurrentDocument).To(BeEmpty())
	})

	It("never decreases the current counter", func() {
		var s progress.MeetingSummary
		s, _ = s.Apply(ev(progress.EventProgress, `{"current":2,"total":3}`))
		s, _ = s.Apply(ev(progress.EventProgress, `{"current":1,"total":3}`))
		Expect(s.Current).To(Equal(2))
	})

	It("is terminal on a server error event", func() {
		var s progress.MeetingSummary
		s, _ = s.Apply(ev(progress.EventError, `{"error":"summarizer unavailable"}`))
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error).To(Equal("summarizer unavailable"))
	})

	It("ignores every event after terminal", func() {
		var s progress.MeetingSummary
		s, _ = s.Apply(ev(progress.EventComplete, `{"meeting_id":"m-1","overall_report":"done"}`))

		after, err := s.Apply(ev(progress.EventProgress, `{"current":9,"total":9}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(s))
	})

	It("reports malformed payloads without changing state", func() {
		var s progress.MeetingSummary
		after, err := s.Apply(ev(progress.EventComplete, `not json at all`))
		Expect(err).To(HaveOccurred())
		Expect(after).To(Equal(s))
		Expect(after.Terminal()).To(BeFalse())
	})
})
