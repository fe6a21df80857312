package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

func TestTasksCmd_NoneYet(t *testing.T) {
	setupServices(t, testServices(t))

	out, err := run(t, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "No tasks have run yet.\n", out)
}

func TestTasksCmd_AfterSweep(t *testing.T) {
	setupServices(t, testServices(t))

	_, err := run(t, "sweep", "--prune")
	require.NoError(t, err)

	out, err := run(t, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, domain.TaskIDGrantSweep)
	assert.Contains(t, out, "Redeemed Token Prune")
	assert.Contains(t, out, "ok")
}

func TestTasksCmd_NoScheduler(t *testing.T) {
	svc := testServices(t)
	svc.Scheduler = nil
	setupServices(t, svc)

	_, err := run(t, "tasks")
	assert.EqualError(t, err, "scheduler not configured")
}

func TestNextRun(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "disabled", nextRun(now, &domain.ScheduledTask{}))
	assert.Equal(t, "due", nextRun(now, &domain.ScheduledTask{Enabled: true}))
	assert.Equal(t, "due", nextRun(now, &domain.ScheduledTask{Enabled: true, NextRun: now.Add(-time.Minute)}))
	assert.Contains(t, nextRun(now, &domain.ScheduledTask{Enabled: true, NextRun: now.Add(time.Hour)}), "from now")
}

func TestTaskStatus(t *testing.T) {
	assert.Equal(t, "pending", taskStatus(domain.ScheduledTask{}))
	assert.Equal(t, "ok", taskStatus(domain.ScheduledTask{LastSuccess: time.Now()}))
	assert.Equal(t, "failed: boom", taskStatus(domain.ScheduledTask{LastError: "boom"}))
}
