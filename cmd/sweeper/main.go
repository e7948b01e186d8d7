package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservo/internal/platform"
	"reservo/internal/sweeper"
	"reservo/pkg/clock"
	"reservo/pkg/config"

	"github.com/spf13/pflag"
)

const JobName = "sweeper"

func main() {
	once := pflag.Bool("once", false, "run every sweep a single time and exit")
	interval := pflag.Duration("interval", 0, "time between sweeps (defaults to SWEEP_INTERVAL)")
	pflag.Parse()

	os.Exit(run(*once, *interval))
}

func run(once bool, interval time.Duration) int {
	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()
	if interval <= 0 {
		interval = cfg.SweepInterval
	}

	publisher, closePublisher, err := platform.OpenPublisher(cfg)
	if err != nil {
		cfg.Log.Error("Failed to configure event publisher", "error", err)
		return 1
	}
	defer closePublisher()

	services := platform.NewServices(cfg, platform.OpenStores(cfg), platform.OpenLocker(cfg), publisher, clock.Real())
	runner := sweeper.NewRunner(clock.Real(), cfg.Log,
		sweeper.NewJob("expire_complete", services.Bookings.SweepExpireAndComplete),
		sweeper.NewJob("overdue_keys", services.Keys.SweepOverdueKeys),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		applied, err := runner.RunOnce(ctx)
		if err != nil {
			cfg.Log.Error("Sweep finished with failures", "applied", applied, "error", err)
			return 1
		}
		cfg.Log.Info("Sweep finished", "applied", applied)
		return 0
	}

	if err := runner.Run(ctx, interval); err != nil {
		cfg.Log.Error("Sweeper failed", "error", err)
		return 1
	}
	return 0
}
