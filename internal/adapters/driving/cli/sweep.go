package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired grants now",
	Long: `Run the grant expiry sweep once and print how many grants were removed.
With --prune, also forget redeemed tokens older than the configured retention.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Bool("prune", false, "also prune old redeemed tokens")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	prune, err := cmd.Flags().GetBool("prune")
	if err != nil {
		return fmt.Errorf("getting prune flag: %w", err)
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}
	if svc.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	tasks := []string{domain.TaskIDGrantSweep}
	if prune {
		tasks = append(tasks, domain.TaskIDRedeemedPrune)
	}

	var failed error
	for _, id := range tasks {
		result, err := svc.Scheduler.RunOnce(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !result.Success {
			cmd.Printf("%s failed: %s\n", id, result.Error)
			failed = fmt.Errorf("%s failed", id)
			continue
		}
		cmd.Printf("%s: removed %d\n", id, result.Removed)
	}
	return failed
}
