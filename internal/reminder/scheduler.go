package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRunning = errors.New("job already running")
	ErrUnknownJob     = errors.New("unknown job")
	ErrDuplicateJob   = errors.New("job already registered")
	ErrStopped        = errors.New("scheduler stopped")
)

// Job is a unit of scheduled work. It reports failures through its own
// logging; the scheduler only tracks whether it is running.
type Job func(ctx context.Context)

type job struct {
	name    string
	spec    string
	fn      Job
	id      cron.EntryID
	running atomic.Bool
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name    string
	Spec    string
	Next    time.Time
	Running bool
}

// Scheduler is the process-wide job registry. Jobs are registered with
// cron on Start and removed on Stop. A job never runs twice at once: a cron
// tick or RunNow that finds it in flight is refused.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	jobs     map[string]*job
	started  bool
	stopped  bool
	inflight sync.WaitGroup

	// parent of every run, cancelled if Stop gives up waiting
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

func NewScheduler(loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job under a standard 5-field cron spec. Jobs registered
// after Start are scheduled immediately.
func (s *Scheduler) Register(name, spec string, fn Job) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	s.jobs[name] = j
	if s.started {
		return s.schedule(j)
	}
	return nil
}

func (s *Scheduler) schedule(j *job) error {
	id, err := s.cron.AddFunc(j.spec, func() { s.fire(j) })
	if err != nil {
		return fmt.Errorf("job %s: %w", j.name, err)
	}
	j.id = id
	return nil
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}
	for _, j := range s.jobs {
		if err := s.schedule(j); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.started = true
	for _, j := range s.jobs {
		s.log.Info().Str("job", j.name).Str("spec", j.spec).Time("next", s.cron.Entry(j.id).Next).Msg("job scheduled")
	}
	return nil
}

func (s *Scheduler) fire(j *job) {
	if err := s.run(s.ctx, j); err != nil {
		s.log.Warn().Err(err).Str("job", j.name).Msg("scheduled run skipped")
	}
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if !j.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	defer func() {
		j.running.Store(false)
		s.inflight.Done()
	}()

	start := time.Now()
	s.log.Info().Str("job", j.name).Msg("job started")
	j.fn(ctx)
	s.log.Info().Str("job", j.name).Dur("elapsed", time.Since(start)).Msg("job finished")
	return nil
}

// RunNow runs a registered job synchronously. The job's context ends when
// either ctx ends or Stop gives up waiting.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	return s.run(ctx, j)
}

func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{Name: j.name, Spec: j.spec, Running: j.running.Load()}
		if s.started {
			info.Next = s.cron.Entry(j.id).Next
		}
		out = append(out, info)
	}
	return out
}

// Stop deregisters every job and waits for in-flight runs. If ctx expires
// first, running jobs see their context cancelled and ctx.Err is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for _, j := range s.jobs {
		if j.id != 0 {
			s.cron.Remove(j.id)
		}
	}
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	if wasStarted {
		s.cron.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
