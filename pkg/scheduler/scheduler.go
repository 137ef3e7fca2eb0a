package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "GlobalLiquidity/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// Scheduler runs jobs on cron schedules. A job that is still running when
// its next tick fires is skipped rather than run twice.
type Scheduler struct {
	cron    *cron.Cron
	log     *applogger.Logger
	timeout time.Duration
}

// New creates a scheduler. Each run gets a context bounded by timeout.
func New(l *applogger.Logger, timeout time.Duration) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     l.Component("scheduler"),
		timeout: timeout,
	}
}

// AddJob registers job. Schedules use the standard five-field syntax
// or descriptors such as "@every 6h" and "@hourly".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), schedule, err)
	}
	s.log.Info("job scheduled", applogger.String("job", job.Name()), applogger.String("schedule", schedule))
	return nil
}

// RunNow runs job once in the background, outside its schedule.
func (s *Scheduler) RunNow(job Job) {
	go s.run(job)
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("job failed", applogger.String("job", job.Name()), applogger.Error(err))
		return
	}
	s.log.Debug("job completed",
		applogger.String("job", job.Name()),
		applogger.Duration("took_ms", time.Since(start)),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}
