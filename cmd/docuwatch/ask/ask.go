// Package askcmder provides the ask command for streaming question
// answering against the indexed corpus.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/config"
	"github.com/docuwatchco/docuwatch/pkg/credentials"
	"github.com/docuwatchco/docuwatch/pkg/dotdir"
	"github.com/docuwatchco/docuwatch/pkg/history"
	"github.com/docuwatchco/docuwatch/pkg/logger"
	"github.com/docuwatchco/docuwatch/pkg/monitor"
	"github.com/docuwatchco/docuwatch/pkg/progress"
	"github.com/docuwatchco/docuwatch/pkg/utils"
)

const askLongDesc string = `Ask a question against the indexed document corpus.

The answer streams to the terminal as it is generated. In agentic mode
the model may consult tools first; each tool step is shown as it runs.
Supporting evidence is listed under the answer.

When the stream drops before the answer finishes, the run is followed by
polling and the full answer is recovered once it completes.

Examples:
  docuwatch ask "What was decided about the budget?"
  docuwatch ask "Summarize the roadmap risks" --agentic
  docuwatch ask "And the timeline?" --session sess-42`

const askShortDesc string = "Ask a question against the indexed corpus"

type askCommander struct {
	target       string
	timeout      uint
	noStream     bool
	pollInterval uint
	pollAttempts uint
	historyPath  string
	sessionID    string
	agentic      bool
	debug        bool
	configDir    string

	logger *slog.Logger
}

var askFlagKeys = []string{
	config.FlagTarget,
	config.FlagTimeout,
	config.FlagNoStream,
	config.FlagPollInterval,
	config.FlagPollAttempts,
	config.FlagHistoryPath,
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, askFlagKeys)

			cmder.target = v.GetString("server.target")
			cmder.timeout = v.GetUint("server.timeout_seconds")
			cmder.noStream = v.GetBool("stream.disable")
			cmder.pollInterval = v.GetUint("poll.interval_seconds")
			cmder.pollAttempts = v.GetUint("poll.max_attempts")
			cmder.historyPath = v.GetString("history.sqlite_path")

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.logger = logger.New(logger.WithDebug(cmder.debug), logger.WithWriter(os.Stderr))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNoStream, &cmder.noStream)
	config.AddUintFlag(cmd, config.Flags, config.FlagPollInterval, &cmder.pollInterval)
	config.AddUintFlag(cmd, config.Flags, config.FlagPollAttempts, &cmder.pollAttempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagHistoryPath, &cmder.historyPath)

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Conversation session id for follow-up questions")
	cmd.Flags().BoolVarP(&cmder.agentic, "agentic", "a", false, "Let the model consult tools before answering")

	return cmd
}

func (c *askCommander) run(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("question cannot be empty")
	}

	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	provider, err := credentials.NewFileProvider(mgr, c.logger)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	defer provider.Close()

	cl, err := client.New(c.target,
		client.WithTimeout(time.Duration(c.timeout)*time.Second),
		client.WithProvider(provider),
		client.WithLogger(c.logger),
	)
	if err != nil {
		return err
	}

	opts := []monitor.Option{
		monitor.WithLogger(c.logger),
		monitor.WithPollInterval(time.Duration(c.pollInterval) * time.Second),
		monitor.WithPollAttempts(int(c.pollAttempts)),
	}
	if c.noStream {
		opts = append(opts, monitor.WithoutStream())
	}
	mon := monitor.New(cl, opts...)

	store, err := history.Open(c.resolveHistoryPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	var w *monitor.Watch[progress.QAStream]
	err = cliui.Step(os.Stderr, "asking", func() error {
		var aerr error
		w, aerr = mon.Ask(ctx, client.QARequest{
			Question:  question,
			SessionID: c.sessionID,
			Agentic:   c.agentic,
		})
		return aerr
	})
	if err != nil {
		return err
	}

	final := c.printStream(w)

	_, werr := w.Wait(context.Background())

	entry := history.Entry{
		ID:        w.ID(),
		Kind:      string(w.Kind()),
		Resource:  utils.Truncate(question, 80),
		Outcome:   history.OutcomeFor(werr),
		StartedAt: started,
		Duration:  time.Since(started),
	}
	hctx, hcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer hcancel()
	if rerr := store.Record(hctx, entry); rerr != nil {
		c.logger.Warn("recording history failed", "err", rerr)
	}

	if werr != nil {
		if errors.Is(werr, context.Canceled) {
			return nil
		}
		return werr
	}

	printEvidence(final.Evidence)
	return nil
}

// printStream consumes snapshots and writes the answer incrementally.
// Snapshots are cumulative, so only text beyond what was already written is
// printed. Returns the last snapshot seen.
func (c *askCommander) printStream(w *monitor.Watch[progress.QAStream]) progress.QAStream {
	var last progress.QAStream
	written := 0
	announced := 0
	closed := 0

	for s := range w.Updates() {
		// Announce each tool step once when it opens, and once when it
		// closes. Steps are append-only and close in order.
		for announced < len(s.Steps) {
			fmt.Printf("%s %s\n",
				cliui.StepStyle.Render("tool>"),
				cliui.NameStyle.Render(s.Steps[announced].Tool),
			)
			announced++
		}
		for closed < len(s.Steps) && s.Steps[closed].Done {
			fmt.Printf("%s %s done\n",
				cliui.StepStyle.Render("tool>"),
				cliui.DimStyle.Render(s.Steps[closed].Tool),
			)
			closed++
		}

		if len(s.Answer) > written {
			fmt.Print(s.Answer[written:])
			written = len(s.Answer)
		}
		last = s
	}

	<-w.Done()
	if final, err := w.Result(); err == nil {
		// The poll path can recover the whole answer at once.
		if len(final.Answer) > written {
			fmt.Print(final.Answer[written:])
			written = len(final.Answer)
		}
		last = final
	}

	if written > 0 {
		fmt.Println()
	}

	return last
}

func printEvidence(evidence []progress.Evidence) {
	if len(evidence) == 0 {
		return
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Evidence"))
	for _, ev := range evidence {
		source := ev.Source
		if ev.Page > 0 {
			source = fmt.Sprintf("%s p.%d", source, ev.Page)
		}
		fmt.Printf("  %s  %s\n",
			cliui.NameStyle.Render(source),
			cliui.DimStyle.Render(utils.Truncate(ev.Snippet, 100)),
		)
	}
	fmt.Println()
}

func (c *askCommander) resolveHistoryPath() string {
	if filepath.IsAbs(c.historyPath) {
		return c.historyPath
	}

	ddm := dotdir.NewManager()
	target, err := ddm.Target(c.configDir)
	if err != nil {
		return c.historyPath
	}

	return filepath.Join(target, c.historyPath)
}
