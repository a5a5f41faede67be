// Package authcmder provides the auth command for storing the backend
// bearer token.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
	"github.com/docuwatchco/docuwatch/pkg/config"
	"github.com/docuwatchco/docuwatch/pkg/credentials"
)

const authLongDesc string = `Store the bearer token used to authenticate against the docuwatch backend.

The token is stored in credentials.toml in the .docuwatch/ directory and
attached to every connection the watch and ask commands open. The
DOCUWATCH_TOKEN environment variable overrides the stored token when set.

Examples:
  docuwatch auth                   Prompt for a token with hidden input
  docuwatch auth tok-abc123        Store a token passed as an argument
  docuwatch auth --status          Show where credentials come from
  docuwatch auth --clear           Remove the stored token
  echo $TOKEN | docuwatch auth     Pipe a token from stdin`

const authShortDesc string = "Store the backend bearer token"

func NewAuthCmd() *cobra.Command {
	var statusFlag bool
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "auth [token]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case statusFlag:
				return runStatus(configDir)
			case clearFlag:
				return runClear(configDir)
			default:
				token := ""
				if len(args) == 1 {
					token = args[0]
				}
				return runAuth(token, configDir)
			}
		},
	}

	cmd.Flags().BoolVar(&statusFlag, "status", false, "Show where the active credential comes from")
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "Remove the stored token")

	return cmd
}

func runAuth(token, configDir string) error {
	if token == "" {
		var err error
		token, err = readToken()
		if err != nil {
			return err
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	server := serverTarget(configDir)
	if err := mgr.SetToken(server, token); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored token for %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(server),
		cliui.DimStyle.Render("("+mgr.Path()+")"),
	)

	if os.Getenv(credentials.EnvToken) != "" {
		fmt.Printf("  %s %s is set and overrides the stored token.\n",
			cliui.WarnStyle.Render("!"),
			credentials.EnvToken,
		)
	}

	fmt.Println()
	return nil
}

func runStatus(configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Credentials"))

	if os.Getenv(credentials.EnvToken) != "" {
		fmt.Printf("  %s  %s %s\n\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render("environment"),
			cliui.DimStyle.Render("("+credentials.EnvToken+")"),
		)
		return nil
	}

	creds, err := mgr.Load()
	if err != nil {
		return err
	}

	if creds.Token == "" {
		fmt.Printf("  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Printf("  Use 'docuwatch auth' to store a token.\n\n")
		return nil
	}

	fmt.Printf("  %s  %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render("file"),
		cliui.DimStyle.Render("("+mgr.Path()+")"),
	)
	if creds.Server != "" {
		fmt.Printf("     %s %s\n", cliui.KeyStyle.Render("server:"), cliui.ValueStyle.Render(creds.Server))
	}
	fmt.Println()

	return nil
}

func runClear(configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetToken("", ""); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed stored token.\n\n", cliui.SuccessMark)

	return nil
}

// serverTarget resolves the configured backend target for display next to
// the stored token. Errors fall back to the default target rather than
// blocking the auth flow.
func serverTarget(configDir string) string {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return config.DefaultTarget
	}

	cfg, err := cfger.LoadConfig()
	if err != nil || cfg.Server.Target == "" {
		return config.DefaultTarget
	}

	return cfg.Server.Target
}

// readToken reads a token from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readToken() (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Print("Enter backend token: ")

	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(tokenBytes), nil
}
