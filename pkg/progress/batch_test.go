package progress_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/progress"
)

var _ = Describe("BatchProgress", func() {
	It("runs the full three-document scenario", func() {
		var s progress.BatchProgress
		var err error

		s, err = s.Apply(ev(progress.EventBatchStart, `{"total":3}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Total).To(Equal(3))

		results := []string{`{"success":true}`, `{"success":true}`, `{"success":false}`}
		for i, result := range results {
			s, _ = s.Apply(ev(progress.EventDocumentStart, fmt.Sprintf(`{"document_id":"doc-%d","filename":"doc-%d.pdf","status":"processing"}`, i, i)))
			Expect(s.CurrentDocument).To(Equal(fmt.Sprintf("doc-%d.pdf", i)))

			s, _ = s.Apply(ev(progress.EventDocumentProgress, `{"progress":50}`))
			Expect(s.CurrentProgress).To(Equal(50))

			s, _ = s.Apply(ev(progress.EventDocumentComplete, result))
			Expect(s.Processed).To(Equal(i + 1))
		}

		Expect(s.Success).To(Equal(2))
		Expect(s.FailedCount).To(Equal(1))

		s, _ = s.Apply(ev(progress.EventBatchComplete, `{"success_count":2,"failed_count":1}`))
		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Processed).To(Equal(3))
		Expect(s.Success).To(Equal(2))
		Expect(s.FailedCount).To(Equal(1))
	})

	It("holds the accounting invariant after every event", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventBatchStart, `{"total":2}`))

		completes := []string{
			`{"success":true}`,
			`{"success":false}`,
			`{"success":true}`, // over-delivery
		}
		for _, c := range completes {
			s, _ = s.Apply(ev(progress.EventDocumentComplete, c))
			Expect(s.Processed).To(Equal(s.Success+s.FailedCount),
				"processed must equal success+failed")
			Expect(s.Processed).To(BeNumerically("<=", s.Total),
				"processed must not exceed total")
		}
		Expect(s.Processed).To(Equal(2))
	})

	It("treats a missing success field as success", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventBatchStart, `{"total":1}`))
		s, _ = s.Apply(ev(progress.EventDocumentComplete, `{"document_id":"d1"}`))
		Expect(s.Success).To(Equal(1))
		Expect(s.FailedCount).To(Equal(0))
	})

	It("never decreases the current document progress", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventDocumentProgress, `{"progress":70}`))
		s, _ = s.Apply(ev(progress.EventDocumentProgress, `{"progress":40}`))
		Expect(s.CurrentProgress).To(Equal(70))
	})

	It("is terminal on a server error event", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventBatchStart, `{"total":5}`))
		s, _ = s.Apply(ev(progress.EventError, `{"error":"storage unavailable"}`))

		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error).To(Equal("storage unavailable"))
	})

	It("ignores every event after terminal", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventBatchStart, `{"total":1}`))
		s, _ = s.Apply(ev(progress.EventBatchComplete, `{"success_count":1,"failed_count":0}`))

		after, err := s.Apply(ev(progress.EventDocumentComplete, `{"success":true}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(s))

		after, _ = s.Apply(ev(progress.EventError, `{"error":"late"}`))
		Expect(after).To(Equal(s))
	})

	It("reports malformed payloads without changing state", func() {
		var s progress.BatchProgress
		s, _ = s.Apply(ev(progress.EventBatchStart, `{"total":3}`))

		after, err := s.Apply(ev(progress.EventDocumentComplete, `{"success":`))
		Expect(err).To(HaveOccurred())
		Expect(after).To(Equal(s))
	})
})
