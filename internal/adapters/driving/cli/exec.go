package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/chat"
)

var execCmd = &cobra.Command{
	Use:   "exec --as <caller-id> <command> [args...]",
	Short: "Run one command as a caller",
	Long: `Run a single command on behalf of a caller and print the reply.

Examples:
  tollgate exec --as root add-operator op-1 500
  tollgate exec --as op-1 issue 1 week
  tollgate exec --as alice redeem 3F9A0C1D2E4B5A68`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().String("as", "", "caller ID to act as")
	// Everything after the first argument belongs to the command line.
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	caller, err := cmd.Flags().GetString("as")
	if err != nil {
		return fmt.Errorf("getting as flag: %w", err)
	}
	if strings.TrimSpace(caller) == "" {
		return errors.New("--as is required")
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}

	d := chat.NewDispatcher(svc.Access)
	return d.Handle(cmd.Context(), caller, strings.Join(args, " "), func(reply string) {
		cmd.Println(reply)
	})
}
