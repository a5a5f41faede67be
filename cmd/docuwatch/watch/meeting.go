package watchcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/progress"
)

const meetingLongDesc string = `Summarize a meeting's documents and follow the run.

Starts summarization of every document attached to the meeting and
follows it: each document summary as it lands, then the overall meeting
report. The report is rendered to the terminal when the run completes.

Examples:
  docuwatch watch meeting meet-q1
  docuwatch watch meeting meet-q1 --plain`

const meetingShortDesc string = "Summarize a meeting's documents"

func newMeetingCmd(c *watchCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meeting <id>",
		Short:   meetingShortDesc,
		Long:    meetingLongDesc,
		Args:    cobra.ExactArgs(1),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMeeting(cmd.Context(), args[0])
		},
	}

	c.registerFlags(cmd)

	return cmd
}

func (c *watchCommander) runMeeting(ctx context.Context, meetingID string) error {
	sess, err := c.setup()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	w, err := sess.monitor.WatchMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	views := make(chan liveView, 1)
	go func() {
		defer close(views)
		for s := range w.Updates() {
			offer(views, meetingView(meetingID, s))
		}
		<-w.Done()
		final, ferr := w.Result()
		v := meetingView(meetingID, final)
		v.done, v.err = true, ferr
		offer(views, v)
	}()

	initial := meetingView(meetingID, progress.MeetingSummary{})
	if err := c.render(views, w.Stop, initial); err != nil {
		return err
	}

	final, werr := w.Wait(context.Background())

	message := ""
	if final.Report != nil {
		message = fmt.Sprintf("%d document summaries", len(final.Report.DocumentSummaries))
	}
	c.record(sess, w.ID(), string(w.Kind()), meetingID, started, message, werr)

	if werr == nil && final.Report != nil {
		printMeetingReport(final.Report)
	}

	return finishErr(werr)
}

func meetingView(meetingID string, s progress.MeetingSummary) liveView {
	v := liveView{
		title:    fmt.Sprintf("meeting %s", meetingID),
		fraction: noFraction,
	}
	if s.Total > 0 {
		v.title = fmt.Sprintf("meeting %s  %d/%d documents", meetingID, s.Current, s.Total)
		v.fraction = float64(s.Current) / float64(s.Total)
	}

	if s.CurrentDocument != "" {
		v.lines = append(v.lines, fmt.Sprintf("summarizing %s", cliui.NameStyle.Render(s.CurrentDocument)))
	}
	for _, sum := range s.Summaries {
		v.lines = append(v.lines, fmt.Sprintf("%s %s", cliui.SuccessMark, cliui.DimStyle.Render(sum.Filename)))
	}

	return v
}

// printMeetingReport renders the overall report markdown and lists the
// per-document summaries beneath it.
func printMeetingReport(report *progress.MeetingReport) {
	rendered, err := cliui.RenderMarkdown(report.OverallReport)
	if err != nil {
		// Fall back to the raw markdown rather than hiding the report.
		rendered = report.OverallReport + "\n"
	}
	fmt.Print(rendered)

	if len(report.DocumentSummaries) == 0 {
		return
	}

	fmt.Printf("  %s\n\n", cliui.HeaderStyle.Render("Document summaries"))
	for _, sum := range report.DocumentSummaries {
		fmt.Printf("  %s\n  %s\n\n",
			cliui.NameStyle.Render(sum.Filename),
			cliui.DimStyle.Render(sum.Summary),
		)
	}
}
