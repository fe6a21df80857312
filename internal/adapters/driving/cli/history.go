package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// listTimeLayout is how timestamps appear in tables.
const listTimeLayout = "2006-01-02 15:04:05"

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show background task runs",
	Long: `Show recent runs of the background tasks, newest first.

Tasks:
  grant-sweep      remove expired grants
  redeemed-prune   forget old redeemed tokens`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var journalCmd = &cobra.Command{
	Use:   "journal [subject-id]",
	Short: "Show the audit journal",
	Long: `Show recent licence operations, newest first. With a subject ID, only
entries about that subject are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJournal,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of runs")
	journalCmd.Flags().IntP("limit", "n", 50, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(journalCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}
	if svc.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	taskID := ""
	if len(args) > 0 {
		taskID = args[0]
	}

	results, err := svc.Scheduler.History(cmd.Context(), taskID, limit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("No task runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		rows = append(rows, []string{
			r.TaskID,
			r.StartedAt.Local().Format(listTimeLayout),
			r.Took().Round(time.Millisecond).String(),
			strconv.Itoa(r.Removed),
			status,
		})
	}

	cmd.Println(renderTable(
		[]string{"Task", "Started", "Took", "Removed", "Status"},
		rows,
		func(row, col int) lipgloss.Style {
			if col == 4 {
				if results[row].Success {
					return successStyle
				}
				return errorStyle
			}
			return cellStyle
		},
	))
	return nil
}

func runJournal(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}
	if svc.Journal == nil {
		return errors.New("journal not configured")
	}

	var entries []domain.JournalEntry
	if len(args) > 0 {
		entries, err = svc.Journal.BySubject(cmd.Context(), args[0], limit)
	} else {
		entries, err = svc.Journal.Recent(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("loading journal: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("Journal is empty.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		amount := ""
		if e.Amount != 0 {
			amount = strconv.FormatInt(e.Amount, 10)
		}
		rows = append(rows, []string{
			e.At.Local().Format(listTimeLayout),
			string(e.Action),
			e.ActorID,
			e.SubjectID,
			amount,
			e.Detail,
		})
	}

	cmd.Println(renderTable(
		[]string{"When", "Action", "Actor", "Subject", "Amount", "Detail"},
		rows,
		func(_, col int) lipgloss.Style {
			if col == 0 || col == 5 {
				return mutedStyle
			}
			return cellStyle
		},
	))
	return nil
}
