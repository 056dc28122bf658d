// Package scheduler drives the overlay's two timing concerns: the
// cron-style performance-refresh/auto-sync intervals, run as Jobs by a
// Scheduler that records each job's last run, and the debounced
// on-change sync upload, run by a separate Debouncer timer that is not
// a Job.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work. Name identifies it in logs and in
// Status.
type Job interface {
	Run() error
	Name() string
}

// runState tracks the last outcome of one registered job, so a caller
// can report scheduler health without threading its own bookkeeping
// through every Job implementation.
type runState struct {
	schedule string
	lastRun  time.Time
	lastErr  error
}

// JobStatus is a point-in-time snapshot of one job's scheduling state.
type JobStatus struct {
	Name     string
	Schedule string
	LastRun  time.Time
	LastErr  error
}

// Scheduler runs cron-triggered Jobs and keeps a small run-state
// registry for introspection.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu    sync.Mutex
	state map[string]*runState
}

// New creates a Scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		log:   log.With().Str("component", "scheduler").Logger(),
		state: make(map[string]*runState),
	}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for in-flight job runs to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job against a cron schedule expression, e.g.
// "@every 1m" for the performance-refresh job or "@every 30m" for
// auto-sync.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	s.state[job.Name()] = &runState{schedule: schedule}
	s.mu.Unlock()

	_, err := s.cron.AddFunc(schedule, func() {
		s.runAndRecord(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("job registered")
	return nil
}

// RunNow executes job immediately, outside its schedule, and records
// the outcome the same way a scheduled firing would.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return s.runAndRecord(job)
}

func (s *Scheduler) runAndRecord(job Job) error {
	s.log.Debug().Str("job", job.Name()).Msg("running job")
	err := job.Run()

	s.mu.Lock()
	st, ok := s.state[job.Name()]
	if !ok {
		st = &runState{}
		s.state[job.Name()] = st
	}
	st.lastRun = time.Now()
	st.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return err
	}
	s.log.Debug().Str("job", job.Name()).Msg("job completed")
	return nil
}

// Status returns a snapshot of every registered job's last run, for
// health/diagnostics reporting.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.state))
	for name, st := range s.state {
		out = append(out, JobStatus{
			Name:     name,
			Schedule: st.schedule,
			LastRun:  st.lastRun,
			LastErr:  st.lastErr,
		})
	}
	return out
}
