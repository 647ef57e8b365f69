package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Adaptive cadence for the automatic refresh loop: spend the API budget
// during waking hours, throttle down overnight.
const (
	DaytimeInterval   = 2 * time.Minute
	OvernightInterval = 15 * time.Minute

	daytimeStartHour = 6
)

// IntervalForNow returns the automatic refresh cadence for the given local
// time: every 2 minutes during [06:00, 24:00) and every 15 minutes during
// [00:00, 06:00). Pure function of the wall clock, no state, no I/O.
func IntervalForNow(now time.Time) time.Duration {
	if now.Hour() >= daytimeStartHour {
		return DaytimeInterval
	}
	return OvernightInterval
}

// Runner drives the automatic refresh job on a gocron scheduler, re-arming
// the job whenever the adaptive cadence changes. The interval is recomputed
// fresh after every run, so a tick that crosses the 06:00 or midnight
// boundary picks up the new cadence on its next tick, never retroactively.
type Runner struct {
	scheduler *gocron.Scheduler
	logger    *zap.SugaredLogger
	job       func(context.Context)
	now       func() time.Time
	interval  time.Duration

	jobTimeout time.Duration
}

// NewRunner creates a Runner that invokes job on every tick. nowFn overrides
// the clock for tests; nil means time.Now.
func NewRunner(logger *zap.SugaredLogger, job func(context.Context), nowFn func() time.Time) *Runner {
	if nowFn == nil {
		nowFn = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{
		scheduler:  gocron.NewScheduler(time.Local),
		logger:     logger,
		job:        job,
		now:        nowFn,
		jobTimeout: 30 * time.Second,
	}
}

// Start arms the job at the current cadence and starts the scheduler.
func (r *Runner) Start() error {
	if err := r.arm(IntervalForNow(r.now())); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (r *Runner) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

func (r *Runner) arm(interval time.Duration) error {
	r.scheduler.Clear()
	r.interval = interval
	_, err := r.scheduler.Every(interval).Do(r.tick)
	return err
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.jobTimeout)
	defer cancel()
	r.job(ctx)

	if next := IntervalForNow(r.now()); next != r.interval {
		r.logger.Infow("scheduler: cadence change", "from", r.interval.String(), "to", next.String())
		if err := r.arm(next); err != nil {
			r.logger.Errorw("scheduler: re-arm failed", "error", err)
		}
	}
}
