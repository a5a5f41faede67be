package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/monitor"
	"github.com/docuwatchco/docuwatch/pkg/progress"
)

const documentLongDesc string = `Follow one document through the processing pipeline.

The document moves through parsing, chunking, and embedding before it is
indexed. Progress is followed live over the event stream, with a polling
fallback when the stream drops.

Examples:
  docuwatch watch document doc-budget
  docuwatch watch document doc-budget --plain`

const documentShortDesc string = "Follow one document through the pipeline"

func newDocumentCmd(c *watchCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "document <id>",
		Short:   documentShortDesc,
		Long:    documentLongDesc,
		Args:    cobra.ExactArgs(1),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDocument(cmd.Context(), args[0])
		},
	}

	c.registerFlags(cmd)

	return cmd
}

func (c *watchCommander) runDocument(ctx context.Context, documentID string) error {
	sess, err := c.setup()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	w, err := sess.monitor.WatchDocument(ctx, documentID)
	if err != nil {
		return err
	}

	views := make(chan liveView, 1)
	go func() {
		defer close(views)
		for s := range w.Updates() {
			offer(views, documentView(documentID, s))
		}
		<-w.Done()
		final, ferr := w.Result()
		v := documentView(documentID, final)
		v.done, v.err = true, ferr
		offer(views, v)
	}()

	initial := documentView(documentID, progress.DocumentStatus{Status: progress.DocStatusPending})
	if err := c.render(views, w.Stop, initial); err != nil {
		return err
	}

	final, werr := w.Wait(context.Background())
	c.record(sess, w.ID(), string(w.Kind()), documentID, started, final.Message, werr)

	return finishErr(werr)
}

func documentView(documentID string, s progress.DocumentStatus) liveView {
	status := s.Status
	if status == "" {
		status = progress.DocStatusPending
	}

	v := liveView{
		title:    fmt.Sprintf("document %s  %s", documentID, status),
		fraction: s.Progress,
	}
	if s.Message != "" {
		v.lines = append(v.lines, cliui.DimStyle.Render(s.Message))
	}
	return v
}

// render drives either the live view or the plain line printer over the
// same snapshot channel.
func (c *watchCommander) render(views <-chan liveView, stop func(), initial liveView) error {
	if c.plain {
		runPlain(views)
		return nil
	}
	return runLive(views, stop, initial)
}

// finishErr maps the watch outcome to the command's exit error. A
// deliberate stop is not a command failure; the operation keeps running
// server-side.
func finishErr(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, monitor.ErrExhausted) {
		return fmt.Errorf("gave up polling before the operation finished: %w", err)
	}
	return err
}
