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

const batchLongDesc string = `Process several documents and follow the run.

Starts a processing run over the given document ids and follows it
document by document: which one is being worked on, how many finished,
and how many failed. The run is followed to its final counts even when
the stream drops.

Examples:
  docuwatch watch batch doc-budget doc-minutes doc-roadmap
  docuwatch watch batch doc-budget --no-stream`

const batchShortDesc string = "Process documents and follow the run"

func newBatchCmd(c *watchCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "batch <id>...",
		Short:   batchShortDesc,
		Long:    batchLongDesc,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args)
		},
	}

	c.registerFlags(cmd)

	return cmd
}

func (c *watchCommander) runBatch(ctx context.Context, documentIDs []string) error {
	sess, err := c.setup()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	w, err := sess.monitor.WatchBatch(ctx, documentIDs)
	if err != nil {
		return err
	}

	views := make(chan liveView, 1)
	go func() {
		defer close(views)
		for s := range w.Updates() {
			offer(views, batchView(s))
		}
		<-w.Done()
		final, ferr := w.Result()
		v := batchView(final)
		v.done, v.err = true, ferr
		offer(views, v)
	}()

	initial := batchView(progress.BatchProgress{Total: len(documentIDs)})
	if err := c.render(views, w.Stop, initial); err != nil {
		return err
	}

	final, werr := w.Wait(context.Background())

	message := fmt.Sprintf("%d/%d succeeded", final.Success, final.Total)
	c.record(sess, w.ID(), string(w.Kind()), strings.Join(documentIDs, ","), started, message, werr)

	if werr == nil {
		fmt.Printf("\n  %s %d/%d documents processed, %d failed\n\n",
			cliui.SuccessMark, final.Success, final.Total, final.FailedCount)
	}

	return finishErr(werr)
}

func batchView(s progress.BatchProgress) liveView {
	v := liveView{
		title:    fmt.Sprintf("batch  %d/%d processed", s.Processed, s.Total),
		fraction: noFraction,
	}
	if s.Total > 0 {
		v.fraction = float64(s.Processed) / float64(s.Total)
	}

	v.lines = append(v.lines, fmt.Sprintf("%s ok  %s failed",
		cliui.ValueStyle.Render(fmt.Sprintf("%d", s.Success)),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", s.FailedCount)),
	))

	if s.CurrentDocument != "" {
		line := fmt.Sprintf("working on %s", cliui.NameStyle.Render(s.CurrentDocument))
		if s.CurrentStatus != "" {
			line += cliui.DimStyle.Render(fmt.Sprintf("  %s %d%%", s.CurrentStatus, s.CurrentProgress))
		}
		v.lines = append(v.lines, line)
	}

	return v
}
