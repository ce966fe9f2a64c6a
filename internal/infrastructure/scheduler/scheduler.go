package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobRun records the most recent run of a job
type JobRun struct {
	Job        string     `json:"job"`
	Schedule   string     `json:"schedule"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

// Config holds scheduler configuration
type Config struct {
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// Location is the time zone schedules are evaluated in
	Location *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 10 * time.Minute,
		Location:   time.Local,
	}
}

type registeredJob struct {
	job      Job
	schedule string
	entryID  cron.EntryID
	last     JobRun
}

// Scheduler runs registered jobs on cron schedules.
// A run that is still going when its next tick arrives is skipped.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*registeredJob
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	cronLogger := cronLogger{logger: logger}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		jobs:    make(map[string]*registeredJob),
		baseCtx: context.Background(),
	}
}

// Register schedules job with a standard five-field cron expression or a
// descriptor such as @daily or @every 1h.
func (s *Scheduler) Register(schedule string, job Job) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob(s.runContext(), name)
	})
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}

	s.jobs[name] = &registeredJob{
		job:      job,
		schedule: schedule,
		entryID:  entryID,
		last:     JobRun{Job: name, Schedule: schedule, Status: JobStatusPending},
	}
	s.logger.Info("Job registered", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Start starts firing jobs
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.isRunning = true
	s.cron.Start()

	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops firing jobs, cancels running ones and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
		return ctx.Err()
	}
}

// RunNow runs a registered job immediately, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobRun, error) {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobRun{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.runJob(ctx, name), nil
}

// Runs returns the last run of every job ordered by name
func (s *Scheduler) Runs() []JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]JobRun, 0, len(s.jobs))
	for _, rj := range s.jobs {
		run := rj.last
		if s.isRunning {
			if next := s.cron.Entry(rj.entryID).Next; !next.IsZero() {
				run.NextRun = &next
			}
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Job < runs[j].Job })
	return runs
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Scheduler) runJob(ctx context.Context, name string) (run JobRun) {
	s.mu.Lock()
	rj := s.jobs[name]
	started := time.Now()
	rj.last = JobRun{Job: name, Schedule: rj.schedule, Status: JobStatusRunning, StartedAt: &started}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		finished := time.Now()

		s.mu.Lock()
		rj.last.FinishedAt = &finished
		if err != nil {
			rj.last.Status = JobStatusFailed
			rj.last.Error = err.Error()
		} else {
			rj.last.Status = JobStatusSuccess
		}
		run = rj.last
		s.mu.Unlock()

		fields := []zap.Field{zap.String("job", name), zap.Duration("duration", finished.Sub(started))}
		if err != nil {
			s.logger.Error("Job failed", append(fields, zap.Error(err))...)
			return
		}
		s.logger.Info("Job completed", fields...)
	}()

	err = rj.job.Run(ctx)
	return run
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
