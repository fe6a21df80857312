package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui"
	"github.com/custodia-labs/tollgate/internal/logger"
)

var consoleCmd = &cobra.Command{
	Use:   "console --as <caller-id>",
	Short: "Open the interactive operator console",
	Long: `Open a full-screen console acting as one caller. Type commands at the
prompt as you would in chat; active grants and unredeemed tokens are listed
above and refresh on their own.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().String("as", "", "caller ID to act as")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	caller, err := cmd.Flags().GetString("as")
	if err != nil {
		return fmt.Errorf("getting as flag: %w", err)
	}
	if strings.TrimSpace(caller) == "" {
		return errors.New("--as is required")
	}
	if !isTerminal(cmd.InOrStdin()) {
		return errors.New("console needs an interactive terminal; use exec or serve instead")
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{Access: svc.Access, CallerID: caller})
	if err != nil {
		return err
	}

	// Log lines would tear the alt screen. With -v they go to stderr anyway,
	// for redirecting with 2>file.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}
	return app.WithContext(cmd.Context()).Run()
}
