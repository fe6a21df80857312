package driving

import (
	"context"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// Scheduler runs the grant sweep and redemption prune in the background.
type Scheduler interface {
	// Start runs due tasks, then keeps them on their intervals until ctx is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends Start and waits for the task in progress.
	Stop() error

	// RunOnce runs one task now and returns its result.
	RunOnce(ctx context.Context, taskID string) (*domain.TaskResult, error)

	// Tasks returns the saved state of every task.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns recent results for a task, newest first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
