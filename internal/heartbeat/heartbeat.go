// Package heartbeat republishes the controller status on a fixed interval.
package heartbeat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Scheduler runs one beat function every interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	clock     clockwork.Clock
	logger    *slog.Logger
	immediate bool
}

// WithClock drives the schedule from clock instead of wall time.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithImmediateStart runs the first beat as soon as the scheduler starts.
func WithImmediateStart() Option {
	return func(o *options) { o.immediate = true }
}

// New schedules beat every interval. Beats never overlap: a beat still
// running when the next is due causes that one to be skipped.
func New(interval time.Duration, beat func(), opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("heartbeat: interval must be positive, got %v", interval)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var schedOpts []gocron.SchedulerOption
	if o.clock != nil {
		schedOpts = append(schedOpts, gocron.WithClock(o.clock))
	}
	s, err := gocron.NewScheduler(schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	jobOpts := []gocron.JobOption{
		gocron.WithName("heartbeat"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if o.immediate {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := s.NewJob(gocron.DurationJob(interval), gocron.NewTask(beat), jobOpts...); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create heartbeat job: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		interval:  interval,
		logger:    o.logger.With("component", "heartbeat"),
	}, nil
}

// Start begins the schedule.
func (s *Scheduler) Start() {
	s.logger.Info("heartbeat started", "interval", s.interval)
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for a running beat to finish.
func (s *Scheduler) Stop() error {
	s.logger.Info("heartbeat stopped")
	return s.scheduler.Shutdown()
}
