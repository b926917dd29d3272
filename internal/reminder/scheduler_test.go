package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(ist, zerolog.Nop())
}

func TestSchedulerRegister(t *testing.T) {
	s := newTestScheduler()
	noop := func(context.Context) {}

	require.NoError(t, s.Register("daily-reminders", "0 8 * * *", noop))
	assert.ErrorIs(t, s.Register("daily-reminders", "0 9 * * *", noop), ErrDuplicateJob)
	assert.Error(t, s.Register("bad", "every morning", noop))
	assert.ErrorIs(t, s.RunNow(context.Background(), "nope"), ErrUnknownJob)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "0 8 * * *", jobs[0].Spec)
	assert.True(t, jobs[0].Next.IsZero(), "not started")
}

func TestSchedulerStartComputesNextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register("daily-reminders", "0 8 * * *", func(context.Context) {}))
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	next := s.Jobs()[0].Next
	require.False(t, next.IsZero())
	local := next.In(ist)
	assert.Equal(t, 8, local.Hour())
	assert.Equal(t, 0, local.Minute())
}

func TestSchedulerRefusesOverlap(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Register("daily-reminders", "0 8 * * *", func(context.Context) {
		runs.Add(1)
		close(started)
		<-release
	}))

	errc := make(chan error, 1)
	go func() { errc <- s.RunNow(context.Background(), "daily-reminders") }()
	<-started

	assert.ErrorIs(t, s.RunNow(context.Background(), "daily-reminders"), ErrAlreadyRunning)
	assert.True(t, s.Jobs()[0].Running)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, s.Jobs()[0].Running)
}

func TestSchedulerStopWaitsForInflight(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.Register("daily-reminders", "0 8 * * *", func(context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	}))
	require.NoError(t, s.Start())

	go s.RunNow(context.Background(), "daily-reminders")
	<-started

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())

	assert.ErrorIs(t, s.RunNow(context.Background(), "daily-reminders"), ErrStopped)
	assert.ErrorIs(t, s.Register("other", "0 9 * * *", func(context.Context) {}), ErrStopped)
	assert.ErrorIs(t, s.Start(), ErrStopped)
	assert.NoError(t, s.Stop(context.Background()), "second stop is a no-op")
}

func TestSchedulerStopDeadline(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Register("daily-reminders", "0 8 * * *", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))

	// the caller never cancels; Stop's deadline has to end the run
	go s.RunNow(context.Background(), "daily-reminders")
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}
