package watchcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/progress"
)

const meetingsLongDesc string = `Summarize across several meetings and follow the run.

Each meeting is summarized in turn, then one integrated report is
generated across all of them. The run is followed meeting by meeting,
including the switch into integrated report generation, and the
integrated report is rendered when the run completes.

Examples:
  docuwatch watch meetings meet-q1 meet-board
  docuwatch watch meetings meet-q1 meet-board --poll-attempts 120`

const meetingsShortDesc string = "Summarize across meetings"

func newMeetingsCmd(c *watchCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meetings <id>...",
		Short:   meetingsShortDesc,
		Long:    meetingsLongDesc,
		Args:    cobra.MinimumNArgs(2),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMeetings(cmd.Context(), args)
		},
	}

	c.registerFlags(cmd)

	return cmd
}

func (c *watchCommander) runMeetings(ctx context.Context, meetingIDs []string) error {
	sess, err := c.setup()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	w, err := sess.monitor.WatchMeetings(ctx, meetingIDs)
	if err != nil {
		return err
	}

	views := make(chan liveView, 1)
	go func() {
		defer close(views)
		for s := range w.Updates() {
			offer(views, meetingsView(s))
		}
		<-w.Done()
		final, ferr := w.Result()
		v := meetingsView(final)
		v.done, v.err = true, ferr
		offer(views, v)
	}()

	initial := meetingsView(progress.MultiMeetingProgress{TotalMeetings: len(meetingIDs)})
	if err := c.render(views, w.Stop, initial); err != nil {
		return err
	}

	final, werr := w.Wait(context.Background())

	message := fmt.Sprintf("%d meetings", len(meetingIDs))
	c.record(sess, w.ID(), string(w.Kind()), strings.Join(meetingIDs, ","), started, message, werr)

	if werr == nil && final.Report != nil {
		printIntegratedReport(final.Report)
	}

	return finishErr(werr)
}

func meetingsView(s progress.MultiMeetingProgress) liveView {
	v := liveView{
		title:    fmt.Sprintf("meetings  %d/%d summarized", s.CurrentMeeting, s.TotalMeetings),
		fraction: noFraction,
	}
	if s.TotalMeetings > 0 {
		v.fraction = float64(s.CurrentMeeting) / float64(s.TotalMeetings)
	}

	switch s.Stage {
	case progress.StageProcessingMeeting:
		if s.CurrentMeetingID != "" {
			line := fmt.Sprintf("summarizing %s", cliui.NameStyle.Render(s.CurrentMeetingID))
			if s.TotalDocuments > 0 {
				line += cliui.DimStyle.Render(fmt.Sprintf("  %d/%d documents", s.DocumentsProcessed, s.TotalDocuments))
			}
			v.lines = append(v.lines, line)
		}
	case progress.StageIntegratedReport:
		v.title = "meetings  generating integrated report"
		v.fraction = noFraction
		v.lines = append(v.lines, cliui.DimStyle.Render("combining meeting reports"))
	}

	return v
}

// printIntegratedReport renders the integrated markdown followed by the
// per-meeting reports it was built from.
func printIntegratedReport(report *progress.IntegratedReport) {
	rendered, err := cliui.RenderMarkdown(report.Integrated)
	if err != nil {
		rendered = report.Integrated + "\n"
	}
	fmt.Print(rendered)

	for i := range report.Reports {
		printMeetingReport(&report.Reports[i])
	}
}
