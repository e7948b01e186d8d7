// Package sweeper runs the periodic maintenance jobs: expiring and
// completing bookings whose interval has ended and persisting overdue keys.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/pkg/clock"
	"reservo/pkg/logger"
)

type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (int, error)
}

func NewJob(name string, run func(ctx context.Context, now time.Time) (int, error)) Job {
	return Job{Name: name, Run: run}
}

type Runner struct {
	jobs  []Job
	clock clock.Clock
	log   *logger.Logger
}

func NewRunner(clk clock.Clock, log *logger.Logger, jobs ...Job) *Runner {
	return &Runner{jobs: jobs, clock: clk, log: log}
}

// RunOnce runs every job with the same now. A failing job does not stop the
// ones after it; the failures are joined into the returned error.
func (r *Runner) RunOnce(ctx context.Context) (map[string]int, error) {
	now := r.clock.Now()
	applied := make(map[string]int, len(r.jobs))
	var errs []error

	for _, job := range r.jobs {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		start := time.Now()
		n, err := job.Run(ctx, now)
		applied[job.Name] = n
		if err != nil {
			r.log.Error("Sweep job failed", "job", job.Name, "applied", n, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			continue
		}
		r.log.Debug("Sweep job finished", "job", job.Name, "applied", n, "duration", time.Since(start))
	}
	return applied, errors.Join(errs...)
}

// Run calls RunOnce immediately and then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("Sweeper started", "interval", interval, "jobs", len(r.jobs))
	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn("Sweep pass finished with errors", "error", err)
		}
		select {
		case <-ctx.Done():
			r.log.Info("Sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}
