package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// historyKeep is how many results are kept per task.
const historyKeep = 100

// Scheduler runs the background maintenance tasks on a cron schedule.
// A run that is still going when its next tick fires is skipped.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	registry *Registry
	pool     *Pool
	metrics  driven.Metrics
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewScheduler creates a scheduler. store may be nil, in which case task
// state and history are not kept. metrics may be nil.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	registry *Registry,
	pool *Pool,
	metrics driven.Metrics,
) *Scheduler {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &Scheduler{
		config:   config,
		store:    store,
		registry: registry,
		pool:     pool,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Start runs due tasks once, then keeps running them on their intervals.
// It blocks until ctx is cancelled or Stop is called, and returns after the
// task in progress, if any, has finished.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	if !s.config.Enabled {
		logger.Info("scheduler: disabled")
		s.wait(ctx, stopCh)
		return nil
	}

	// Jobs outlive ctx so the last run can still record its result.
	jobCtx := context.WithoutCancel(ctx)

	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(logger.Logger())),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.Logger()))),
	)

	for _, id := range domain.Tasks() {
		cfg := s.config.GetTaskConfig(id)
		if !cfg.Enabled {
			continue
		}
		task, err := s.ensureTask(jobCtx, id, cfg)
		if err != nil {
			logger.Warn("scheduler: failed to initialise task %s: %v", id, err)
		}
		if task.Due(s.now()) {
			s.execute(jobCtx, id)
		}

		taskID := id
		c.Schedule(cron.Every(cfg.Interval), cron.FuncJob(func() {
			s.execute(jobCtx, taskID)
		}))
		logger.Debug("scheduler: %s every %s", id, cfg.Interval)
	}

	c.Start()
	s.wait(ctx, stopCh)
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) wait(ctx context.Context, stopCh <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-stopCh:
	}
}

// Stop ends a running Start and waits for it to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// RunOnce runs taskID synchronously. A task failure is reported in the
// result; the error is only set for unknown tasks.
func (s *Scheduler) RunOnce(ctx context.Context, taskID string) (*domain.TaskResult, error) {
	if domain.TaskName(taskID) == "" {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	return s.execute(ctx, taskID), nil
}

// Tasks returns the saved state of every task. Without a store there is none.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListTasks(ctx)
}

// History returns recent results for taskID, newest first.
// An empty taskID returns results for all tasks.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetTaskHistory(ctx, taskID, limit)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id string, cfg domain.TaskConfig) (*domain.ScheduledTask, error) {
	if s.store == nil {
		return nil, nil
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     domain.TaskName(id),
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else if task.Interval != cfg.Interval {
		task.Interval = cfg.Interval
		task.NextRun = time.Time{}
	}
	task.Enabled = cfg.Enabled

	return task, s.store.SaveTask(ctx, task)
}

// execute runs one task and records its outcome. Failures are logged and
// never stop the schedule.
func (s *Scheduler) execute(ctx context.Context, taskID string) *domain.TaskResult {
	result := &domain.TaskResult{
		TaskID:    taskID,
		StartedAt: s.now(),
	}

	var err error
	switch taskID {
	case domain.TaskIDGrantSweep:
		result.Removed, err = s.sweepGrants(ctx, result.StartedAt)
	case domain.TaskIDRedeemedPrune:
		result.Removed, err = s.pool.PruneRedeemed(ctx, s.config.RedeemedRetention)
	}

	result.EndedAt = s.now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		logger.Warn("scheduler: %s failed: %v", taskID, err)
	} else if result.Removed > 0 {
		logger.Info("scheduler: %s removed %d", taskID, result.Removed)
	}

	s.record(ctx, result)
	return result
}

func (s *Scheduler) sweepGrants(ctx context.Context, now time.Time) (int, error) {
	removed, err := s.registry.Sweep(ctx, now)
	s.metrics.SweepObserved(removed, err)
	if err != nil {
		return 0, err
	}
	if active, err := s.registry.ListActive(ctx, now); err == nil {
		s.metrics.ActiveGrants(len(active))
	}
	return removed, nil
}

// record persists the task state and result.
func (s *Scheduler) record(ctx context.Context, result *domain.TaskResult) {
	if s.store == nil {
		return
	}

	task, err := s.store.GetTask(ctx, result.TaskID)
	if err != nil {
		logger.Warn("scheduler: failed to load task %s: %v", result.TaskID, err)
	}
	if task == nil {
		cfg := s.config.GetTaskConfig(result.TaskID)
		task = &domain.ScheduledTask{
			ID:       result.TaskID,
			Name:     domain.TaskName(result.TaskID),
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	}

	task.LastRun = result.StartedAt
	task.LastError = result.Error
	if result.Success {
		task.LastSuccess = result.EndedAt
	}
	if task.Interval > 0 {
		task.NextRun = result.EndedAt.Add(task.Interval)
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyKeep); err != nil {
		logger.Warn("scheduler: failed to prune history: %v", err)
	}
}
