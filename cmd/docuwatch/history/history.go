// Package historycmder provides the history command for listing finished
// operations.
package historycmder

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/config"
	"github.com/docuwatchco/docuwatch/pkg/dotdir"
	"github.com/docuwatchco/docuwatch/pkg/history"
)

const historyLongDesc string = `List recently finished operations.

Every watch and ask run is recorded locally when it ends, with its
outcome and duration. The list is newest first.

Examples:
  docuwatch history
  docuwatch history --limit 50`

const historyShortDesc string = "List recently finished operations"

func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runHistory(cmd.Context(), configDir, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to list")

	return cmd
}

func runHistory(ctx context.Context, configDir string, limit int) error {
	path, err := historyPath(configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Printf("\n  %s No recorded operations yet.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Recent operations"))
	for _, e := range entries {
		fmt.Printf("  %s  %-13s %-9s %s  %s\n",
			outcomeMark(e.Outcome),
			e.Kind,
			e.Outcome,
			cliui.NameStyle.Render(e.Resource),
			cliui.DimStyle.Render(fmt.Sprintf("%s ago, took %s",
				cliui.FormatDuration(time.Since(e.StartedAt)),
				cliui.FormatDuration(e.Duration),
			)),
		)
		if e.Message != "" {
			fmt.Printf("      %s\n", cliui.DimStyle.Render(e.Message))
		}
	}
	fmt.Println()

	return nil
}

func outcomeMark(outcome string) string {
	if outcome == history.OutcomeCompleted {
		return cliui.SuccessMark
	}
	return cliui.FailMark
}

// historyPath resolves the configured database path, placing a relative
// path inside the .docuwatch directory.
func historyPath(configDir string) (string, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return "", err
	}

	path := v.GetString("history.sqlite_path")
	if filepath.IsAbs(path) {
		return path, nil
	}

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(target, path), nil
}
