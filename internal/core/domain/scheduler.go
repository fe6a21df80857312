package domain

import "time"

// Built-in maintenance tasks.
const (
	// TaskIDGrantSweep evicts grants whose validity window has elapsed.
	TaskIDGrantSweep = "grant-sweep"

	// TaskIDRedeemedPrune forgets redemption records past the retention window.
	TaskIDRedeemedPrune = "redeemed-prune"
)

// Tasks returns the built-in task IDs in the order they run at startup.
func Tasks() []string {
	return []string{TaskIDGrantSweep, TaskIDRedeemedPrune}
}

// TaskName returns the display name of a built-in task, or "" if id is unknown.
func TaskName(id string) string {
	switch id {
	case TaskIDGrantSweep:
		return "Grant Expiry Sweep"
	case TaskIDRedeemedPrune:
		return "Redeemed Token Prune"
	default:
		return ""
	}
}

// ScheduledTask is the persisted state of a maintenance task. It survives
// restarts so a task is not rerun early after a crash.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty if the last run succeeded.
	LastError string
}

// Due reports whether the task should run at now. A task with no recorded
// state, or that never ran, is due.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t == nil || t.NextRun.IsZero() || !t.NextRun.After(now)
}

// TaskResult is the outcome of one task run.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// Removed counts the grants evicted or redemption records pruned.
	Removed int
}

// Took returns how long the run lasted.
func (r TaskResult) Took() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig

	// RedeemedRetention is how long consumed tokens are remembered.
	RedeemedRetention time.Duration
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig sweeps grants every five minutes and prunes
// redemption records hourly, remembering them for thirty days.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDGrantSweep: {
				Enabled:  true,
				Interval: 5 * time.Minute,
			},
			TaskIDRedeemedPrune: {
				Enabled:  true,
				Interval: time.Hour,
			},
		},
		RedeemedRetention: 30 * 24 * time.Hour,
	}
}
