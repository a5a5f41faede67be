// Package watchcmder provides the watch command family for following
// long-running document analysis operations.
package watchcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/config"
	"github.com/docuwatchco/docuwatch/pkg/credentials"
	"github.com/docuwatchco/docuwatch/pkg/dotdir"
	"github.com/docuwatchco/docuwatch/pkg/history"
	"github.com/docuwatchco/docuwatch/pkg/logger"
	"github.com/docuwatchco/docuwatch/pkg/monitor"
)

const watchLongDesc string = `Follow long-running document analysis operations live.

Each subcommand starts (or attaches to) one operation on the backend,
opens its progress stream, and renders live status until the operation
ends. When the stream cannot be opened or drops before finishing, the
watch falls back to polling the status endpoint so the operation is
still followed to its final outcome.

Finished operations are recorded in the local history database; see
"docuwatch history".

Examples:
  docuwatch watch document doc-budget
  docuwatch watch batch doc-budget doc-minutes
  docuwatch watch meeting meet-q1
  docuwatch watch meetings meet-q1 meet-board
  docuwatch watch document doc-budget --no-stream --poll-interval 5`

const watchShortDesc string = "Follow document analysis operations live"

// watchCommander carries the resolved settings shared by every watch
// subcommand.
type watchCommander struct {
	target       string
	timeout      uint
	noStream     bool
	pollInterval uint
	pollAttempts uint
	historyPath  string
	plain        bool
	debug        bool
	configDir    string

	logger *slog.Logger
}

// watchFlagKeys are the registry keys every watch subcommand registers and
// binds.
var watchFlagKeys = []string{
	config.FlagTarget,
	config.FlagTimeout,
	config.FlagNoStream,
	config.FlagPollInterval,
	config.FlagPollAttempts,
	config.FlagHistoryPath,
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
	}

	cmd.AddCommand(newDocumentCmd(cmder))
	cmd.AddCommand(newBatchCmd(cmder))
	cmd.AddCommand(newMeetingCmd(cmder))
	cmd.AddCommand(newMeetingsCmd(cmder))

	return cmd
}

// registerFlags registers the shared connection and fallback flags on a
// watch subcommand from the flag registry.
func (c *watchCommander) registerFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &c.target)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &c.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNoStream, &c.noStream)
	config.AddUintFlag(cmd, config.Flags, config.FlagPollInterval, &c.pollInterval)
	config.AddUintFlag(cmd, config.Flags, config.FlagPollAttempts, &c.pollAttempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagHistoryPath, &c.historyPath)

	cmd.Flags().BoolVar(&c.plain, "plain", false, "Print progress lines instead of the live view")
}

// preRun resolves the effective settings through the viper precedence
// chain: flag > environment > config file > default.
func (c *watchCommander) preRun(cmd *cobra.Command, _ []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	c.configDir = configDir

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, watchFlagKeys)

	c.target = v.GetString("server.target")
	c.timeout = v.GetUint("server.timeout_seconds")
	c.noStream = v.GetBool("stream.disable")
	c.pollInterval = v.GetUint("poll.interval_seconds")
	c.pollAttempts = v.GetUint("poll.max_attempts")
	c.historyPath = v.GetString("history.sqlite_path")

	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %w", err)
	}

	// Progress rendering owns stdout; logs go to stderr.
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr))

	return nil
}

// session is everything a watch subcommand needs at run time.
type session struct {
	monitor  *monitor.Monitor
	history  *history.Store
	provider *credentials.FileProvider
}

// Close releases the session's file watcher and history handle.
func (s *session) Close() {
	if s.provider != nil {
		_ = s.provider.Close()
	}
	if s.history != nil {
		_ = s.history.Close()
	}
}

// setup builds the client, monitor, and history store from the resolved
// settings.
func (c *watchCommander) setup() (*session, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	provider, err := credentials.NewFileProvider(mgr, c.logger)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	cl, err := client.New(c.target,
		client.WithTimeout(time.Duration(c.timeout)*time.Second),
		client.WithProvider(provider),
		client.WithLogger(c.logger),
	)
	if err != nil {
		provider.Close()
		return nil, err
	}

	opts := []monitor.Option{
		monitor.WithLogger(c.logger),
		monitor.WithPollInterval(time.Duration(c.pollInterval) * time.Second),
		monitor.WithPollAttempts(int(c.pollAttempts)),
	}
	if c.noStream {
		opts = append(opts, monitor.WithoutStream())
	}

	store, err := history.Open(c.resolveHistoryPath())
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}

	return &session{
		monitor:  monitor.New(cl, opts...),
		history:  store,
		provider: provider,
	}, nil
}

// resolveHistoryPath places a relative history path inside the .docuwatch
// directory so "history.db" lands next to config.toml.
func (c *watchCommander) resolveHistoryPath() string {
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

// record stores one finished operation in the local history. History is
// best effort; a write failure is logged and does not change the command's
// outcome.
func (c *watchCommander) record(s *session, id, kind, resource string, started time.Time, message string, err error) {
	entry := history.Entry{
		ID:        id,
		Kind:      kind,
		Resource:  resource,
		Outcome:   history.OutcomeFor(err),
		Message:   message,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if rerr := s.history.Record(ctx, entry); rerr != nil {
		c.logger.Warn("recording history failed", "err", rerr)
	}
}
