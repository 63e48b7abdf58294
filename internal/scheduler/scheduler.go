// Package scheduler wires the daily pass into a cron schedule for daemon
// deployments. Single-shot deployments invoke the pass directly from main and
// never touch this package.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one scheduled pass.
type RunFunc func(ctx context.Context)

// Scheduler manages the cron-driven daemon mode.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler with panic recovery on every job.
func New(logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger))),
		logger: logger,
	}
}

// Schedule registers run on the given cron spec.
func (s *Scheduler) Schedule(spec string, run RunFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		run(context.Background())
	})
	if err != nil {
		return err
	}
	s.logger.Info("scheduled daily returns job", slog.String("schedule", spec))
	return nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once any
// running job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
