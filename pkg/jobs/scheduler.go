package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a periodic maintenance routine. It returns the number of items it processed.
type Task func(context.Context) (int, error)

// SchedulerConfig configures the scheduler.
type SchedulerConfig struct {
	Interval time.Duration
	Logger   *zap.Logger
}

type namedTask struct {
	name string
	run  Task
}

// Scheduler runs registered tasks on a fixed interval, one goroutine per task.
type Scheduler struct {
	name     string
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	tasks   []namedTask
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler builds a scheduler. Interval defaults to one minute.
func NewScheduler(name string, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{name: name, interval: cfg.Interval, logger: cfg.Logger}
}

// Register adds a task. Tasks registered after Start are ignored.
func (s *Scheduler) Register(name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || task == nil {
		return
	}
	s.tasks = append(s.tasks, namedTask{name: name, run: task})
}

// Start launches the task loops. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
	s.started = true
	s.logger.Sugar().Infow("scheduler started", "scheduler", s.name, "tasks", len(s.tasks), "interval", s.interval)
}

// Stop cancels the task loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("scheduler stopped", "scheduler", s.name)
}

func (s *Scheduler) loop(ctx context.Context, task namedTask) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task namedTask) {
	processed, err := task.run(ctx)
	if err != nil {
		s.logger.Sugar().Warnw("scheduled task failed", "scheduler", s.name, "task", task.name, "error", err)
		return
	}
	if processed > 0 {
		s.logger.Sugar().Debugw("scheduled task done", "scheduler", s.name, "task", task.name, "processed", processed)
	}
}
