package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of scheduled engine work, such as producing the daily brief
type Job interface {
	Run() error
	Name() string
}

// Scheduler fires named jobs on six-field cron specs (seconds first). A job
// whose previous run has not finished skips the tick
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New builds a scheduler that evaluates specs in loc; nil means local time
func New(log zerolog.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule binds job to spec, e.g. "0 45 6 * * MON-FRI" for the pre-market
// brief. Job names are unique
func (s *Scheduler) Schedule(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("job %q is already scheduled", name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = id

	s.log.Info().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Dur("took", time.Since(start)).Msg("Scheduled run failed")
		return
	}
	s.log.Info().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("Scheduled run finished")
}

// NextRun reports when the named job fires next. It is zero until Start
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Len is the number of scheduled jobs
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Trigger runs job once on the caller's goroutine, outside its schedule
func (s *Scheduler) Trigger(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Triggered run")
	return job.Run()
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Len()).Msg("Scheduler started")
}

// Stop halts the ticker and blocks until in-flight runs return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}
