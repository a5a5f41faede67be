package progress_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/progress"
)

var _ = Describe("MultiMeetingProgress", func() {
	It("tracks the active meeting by id and ordinal", func() {
		var s progress.MultiMeetingProgress

		s, _ = s.Apply(ev(progress.EventMeetingStart, `{"meeting_id":"m-1","current":1,"total":2}`))
		Expect(s.Stage).To(Equal(progress.StageProcessingMeeting))
		Expect(s.CurrentMeetingID).To(Equal("m-1"))
		Expect(s.CurrentMeeting).To(Equal(1))
		Expect(s.TotalMeetings).To(Equal(2))

		s, _ = s.Apply(ev(progress.EventMeetingProgress, `{"meeting_id":"m-1","documents_processed":2,"total_documents":4}`))
		Expect(s.DocumentsProcessed).To(Equal(2))
		Expect(s.TotalDocuments).To(Equal(4))

		s, _ = s.Apply(ev(progress.EventMeetingComplete, `{"meeting_id":"m-1"}`))
		s, _ = s.Apply(ev(progress.EventMeetingStart, `{"meeting_id":"m-2","current":2,"total":2}`))
		Expect(s.CurrentMeetingID).To(Equal("m-2"))
		Expect(s.CurrentMeeting).To(Equal(2))
		Expect(s.DocumentsProcessed).To(BeZero(), "document counters reset per meeting")
	})

	It("switches stage and clears the current meeting on integrated_report", func() {
		var s progress.MultiMeetingProgress
		s, _ = s.Apply(ev(progress.EventMeetingStart, `{"meeting_id":"m-1","current":1,"total":1}`))

		s, _ = s.Apply(ev(progress.EventIntegratedReport, `{}`))
		Expect(s.Stage).To(Equal(progress.StageIntegratedReport))
		Expect(s.CurrentMeetingID).To(BeEmpty())
		Expect(s.Terminal()).To(BeFalse())
	})

	It("completes with the integrated report", func() {
		var s progress.MultiMeetingProgress
		s, _ = s.Apply(ev(progress.EventMeetingStart, `{"meeting_id":"m-1","current":1,"total":1}`))
		s, _ = s.Apply(ev(progress.EventIntegratedReport, `{}`))

		s, err := s.Apply(ev(progress.EventComplete, `{
			"meeting_ids": ["m-1"],
			"integrated_report": "Cross-meeting findings."
		}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Report).NotTo(BeNil())
		Expect(s.Report.Integrated).To(Equal("Cross-meeting findings."))
	})

	It("is terminal on a server error event", func() {
		var s progress.MultiMeetingProgress
		s, _ = s.Apply(ev(progress.EventError, `{"error":"meeting m-2 not found"}`))
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error).To(Equal("meeting m-2 not found"))
	})

	It("ignores every event after terminal", func() {
		var s progress.MultiMeetingProgress
		s, _ = s.Apply(ev(progress.EventComplete, `{"integrated_report":"done"}`))

		after, err := s.Apply(ev(progress.EventMeetingStart, `{"meeting_id":"m-9","current":9,"total":9}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(s))
	})

	It("reports malformed payloads without changing state", func() {
		var s progress.MultiMeetingProgress
		after, err := s.Apply(ev(progress.EventMeetingStart, `{"current":`))
		Expect(err).To(HaveOccurred())
		Expect(after).To(Equal(s))
	})
})
