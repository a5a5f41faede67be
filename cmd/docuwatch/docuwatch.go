// Package docuwatchcmder
package docuwatchcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/ask"
	authcmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/auth"
	configcmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/config"
	historycmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/history"
	servecmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/serve"
	watchcmder "github.com/docuwatchco/docuwatch/cmd/docuwatch/watch"
	versioncmder "github.com/docuwatchco/docuwatch/cmd/version"
)

const docuwatchLongDesc string = `Docuwatch follows long-running document analysis operations as they
happen: it opens the backend's progress stream, folds events into live
status, and falls back to polling when the stream cannot be sustained.

Track operations using:
  docuwatch watch document <id>       Follow one document through the pipeline
  docuwatch watch batch <id>...       Process documents and follow the run
  docuwatch watch meeting <id>        Summarize a meeting's documents
  docuwatch watch meetings <id>...    Summarize across meetings
  docuwatch ask "<question>"          Ask a question against the indexed corpus`

const docuwatchShortDesc string = "Docuwatch - live progress for document analysis"

func NewDocuwatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docuwatch",
		Short: docuwatchShortDesc,
		Long:  docuwatchLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .docuwatch config directory")

	// Add subcommands
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
