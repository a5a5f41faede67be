package cliui_test

import (
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
)

var _ = Describe("Bar", func() {
	It("renders the percentage", func() {
		Expect(cliui.Bar(0.5, 10)).To(ContainSubstring("50%"))
		Expect(cliui.Bar(1, 10)).To(ContainSubstring("100%"))
	})

	It("clamps fractions outside 0..1", func() {
		Expect(cliui.Bar(-0.5, 10)).To(ContainSubstring("0%"))
		Expect(cliui.Bar(1.7, 10)).To(ContainSubstring("100%"))
	})

	It("fills proportionally", func() {
		bar := cliui.Bar(0.5, 4)
		Expect(strings.Count(bar, "█")).To(Equal(2))
		Expect(strings.Count(bar, "░")).To(Equal(2))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(250 * time.Millisecond)).To(Equal("250ms"))
	})

	It("uses seconds below a minute", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("uses minutes below an hour", func() {
		Expect(cliui.FormatDuration(4*time.Minute + 12*time.Second)).To(Equal("4m12s"))
	})

	It("uses hours above an hour", func() {
		Expect(cliui.FormatDuration(2*time.Hour + 5*time.Minute)).To(Equal("2h05m"))
	})
})

var _ = Describe("Mark", func() {
	It("marks success and failure", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("Step", func() {
	It("returns the function's error", func() {
		sentinel := errors.New("step failed")
		var out strings.Builder
		Expect(cliui.Step(&out, "working", func() error { return sentinel })).To(MatchError(sentinel))
	})

	It("reports the message on success", func() {
		var out strings.Builder
		Expect(cliui.Step(&out, "working", func() error { return nil })).To(Succeed())
		Expect(out.String()).To(ContainSubstring("working"))
	})
})
