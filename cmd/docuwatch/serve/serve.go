// Package servecmder provides the serve command for running the demo
// backend.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/api"
	"github.com/docuwatchco/docuwatch/pkg/logger"
)

const serveLongDesc string = `Run the demo backend.

The demo backend plays back scripted document-analysis operations over
REST and SSE, so the watch and ask commands can be exercised end to end
without a real analysis pipeline. It serves a small fixed catalog of
documents and meetings.

Examples:
  docuwatch serve
  docuwatch serve --listen :9000 --step-delay 500ms`

const serveShortDesc string = "Run the demo backend"

type serveCommander struct {
	listen    string
	stepDelay time.Duration
	debug     bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", ":8000", "Address to listen on")
	cmd.Flags().DurationVar(&cmder.stepDelay, "step-delay", 300*time.Millisecond, "Pause between scripted stream events")

	return cmd
}

func (c *serveCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug))

	server := api.NewServer(api.Config{
		ListenAddr: c.listen,
		StepDelay:  c.stepDelay,
	}, log)

	errChan := make(chan error, 1)
	go func() {
		log.Info("demo backend listening", "addr", c.listen)
		errChan <- server.Run()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
