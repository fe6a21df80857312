package driven

import (
	"context"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// SchedulerStore keeps maintenance task state and run history so the
// sweeper resumes its cadence after a restart.
type SchedulerStore interface {
	// GetTask returns nil and no error if the task has no saved state.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns the saved state of every task, ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or replaces a task's state.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends one run to the history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit runs, newest first. An empty
	// taskID spans all tasks.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the newest keep runs per task.
	PruneHistory(ctx context.Context, keep int) error
}
