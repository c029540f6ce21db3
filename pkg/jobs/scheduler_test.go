package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsTasksUntilStopped(t *testing.T) {
	var sweeps, failures int32
	s := NewScheduler("maintenance", SchedulerConfig{Interval: 5 * time.Millisecond})
	s.Register("sweep", func(context.Context) (int, error) {
		atomic.AddInt32(&sweeps, 1)
		return 1, nil
	})
	s.Register("broken", func(context.Context) (int, error) {
		atomic.AddInt32(&failures, 1)
		return 0, errors.New("boom")
	})
	s.Register("nil", nil)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sweeps) >= 2 && atomic.LoadInt32(&failures) >= 2
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	after := atomic.LoadInt32(&sweeps)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&sweeps))
}

func TestSchedulerIgnoresLateRegistration(t *testing.T) {
	var runs int32
	s := NewScheduler("maintenance", SchedulerConfig{Interval: 5 * time.Millisecond})
	s.Start(context.Background())
	s.Register("late", func(context.Context) (int, error) {
		atomic.AddInt32(&runs, 1)
		return 0, nil
	})
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()
	assert.Zero(t, atomic.LoadInt32(&runs))
}
