// internal/syncer/scheduler.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseSchedule parses a five-field cron expression or a descriptor such as
// @daily.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// Scheduler runs the sweep on a cron schedule and the stale task reaper at a
// fixed interval.
type Scheduler struct {
	syncer    *Syncer
	sweep     cron.Schedule
	reapEvery time.Duration
	location  *time.Location
	logger    *slog.Logger
}

// NewScheduler creates a scheduler for s. reapEvery <= 0 disables the reaper.
func NewScheduler(s *Syncer, expr string, loc *time.Location, reapEvery time.Duration, logger *slog.Logger) (*Scheduler, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{syncer: s, sweep: sched, reapEvery: reapEvery, location: loc, logger: logger}, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// running jobs to return.
func (sc *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{sc.logger}
	c := cron.New(
		cron.WithLocation(sc.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	c.Schedule(sc.sweep, cron.FuncJob(func() {
		sc.syncer.Sweep(ctx)
	}))
	if sc.reapEvery > 0 && sc.syncer.opts.StaleAfter > 0 {
		c.Schedule(cron.Every(sc.reapEvery), cron.FuncJob(func() {
			if _, err := sc.syncer.ReapStale(ctx); err != nil {
				sc.logger.Error("Stale task reaper failed", "error", err)
			}
		}))
	}

	c.Start()
	sc.logger.Info("Scheduler started", "next_sweep", sc.sweep.Next(time.Now().In(sc.location)).Format(time.RFC3339))

	<-ctx.Done()
	sc.logger.Info("Scheduler shutting down", "reason", ctx.Err())
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
