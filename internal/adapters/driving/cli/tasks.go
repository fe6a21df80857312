package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show background task state",
	Long: `Show each background task with its interval, when it last ran and
when it is next due. Tasks appear after their first run.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(false)
	if err != nil {
		return err
	}
	if svc.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	tasks, err := svc.Scheduler.Tasks(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks have run yet.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			task.ID,
			task.Name,
			task.Interval.String(),
			relative(now, task.LastRun),
			nextRun(now, &task),
			taskStatus(task),
		})
	}

	cmd.Println(renderTable(
		[]string{"ID", "Name", "Interval", "Last run", "Next run", "Status"},
		rows,
		func(row, col int) lipgloss.Style {
			switch {
			case col == 5 && tasks[row].LastError != "":
				return errorStyle
			case col == 5:
				return successStyle
			case col == 3 || col == 4:
				return mutedStyle
			}
			return cellStyle
		},
	))
	return nil
}

func relative(now, at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

func nextRun(now time.Time, task *domain.ScheduledTask) string {
	switch {
	case !task.Enabled:
		return "disabled"
	case task.Due(now):
		return "due"
	}
	return relative(now, task.NextRun)
}

func taskStatus(task domain.ScheduledTask) string {
	if task.LastError != "" {
		return "failed: " + task.LastError
	}
	if task.LastSuccess.IsZero() {
		return "pending"
	}
	return "ok"
}
