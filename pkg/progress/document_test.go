package progress_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/progress"
	"github.com/docuwatchco/docuwatch/pkg/sse"
)

func ev(eventType, data string) sse.Event {
	return sse.Event{Type: eventType, Data: data}
}

var _ = Describe("DocumentStatus", func() {
	It("tracks pipeline stages from status events", func() {
		var s progress.DocumentStatus

		s, err := s.Apply(ev(progress.EventStatus, `{"status":"parsing","progress":0.2,"message":"parsing pages"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Status).To(Equal("parsing"))
		Expect(s.Progress).To(Equal(0.2))
		Expect(s.Message).To(Equal("parsing pages"))
		Expect(s.Terminal()).To(BeFalse())

		s, err = s.Apply(ev(progress.EventStatus, `{"status":"embedding","progress":0.7}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Status).To(Equal("embedding"))
		Expect(s.Progress).To(Equal(0.7))
	})

	It("never lets progress move backwards", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"chunking","progress":0.5}`))
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"chunking","progress":0.3}`))
		Expect(s.Progress).To(Equal(0.5))
	})

	It("is terminal once indexed", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"indexed","progress":0.9}`))
		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Failed()).To(BeFalse())
		Expect(s.Progress).To(Equal(1.0))
	})

	It("is terminal on a status of error", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"error","message":"ocr failed"}`))
		Expect(s.Terminal()).To(BeTrue())
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error).To(Equal("ocr failed"))
	})

	It("is terminal on a server error event, message kept verbatim", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventError, `{"error":"pipeline crashed"}`))
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error).To(Equal("pipeline crashed"))
	})

	It("ignores every event after terminal", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"indexed"}`))

		after, err := s.Apply(ev(progress.EventStatus, `{"status":"parsing","progress":0.1}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(s))

		after, err = s.Apply(ev(progress.EventError, `{"error":"late failure"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(s))
	})

	It("reports malformed payloads without changing state", func() {
		var s progress.DocumentStatus
		s, _ = s.Apply(ev(progress.EventStatus, `{"status":"parsing","progress":0.2}`))

		after, err := s.Apply(ev(progress.EventStatus, `{not json`))
		Expect(err).To(HaveOccurred())
		Expect(after).To(Equal(s))
	})
})
