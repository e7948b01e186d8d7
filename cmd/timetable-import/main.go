package main

import (
	"context"
	"os"
	"time"

	"reservo/internal/platform"
	"reservo/internal/resources/timetable"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/model"

	"github.com/spf13/pflag"
)

const JobName = "timetable-import"

func main() {
	file := pflag.StringP("file", "f", "", "timetable YAML file to import (required)")
	source := pflag.String("source", "", "source for entries that do not set one")
	timeout := pflag.Duration("timeout", 5*time.Minute, "overall import deadline")
	pflag.Parse()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	if *file == "" {
		cfg.Log.Fatal("--file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		cfg.Log.Fatal("Failed to open timetable file", "file", *file, "error", err)
	}
	defer f.Close()

	entries, err := timetable.Parse(f)
	if err != nil {
		cfg.Log.Fatal("Failed to read timetable file", "file", *file, "error", err)
	}
	for _, e := range entries {
		if e.Source == "" {
			e.Source = *source
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	publisher, closePublisher, err := platform.OpenPublisher(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure event publisher", "error", err)
	}
	defer closePublisher()
	services := platform.NewServices(cfg, platform.OpenStores(cfg), platform.OpenLocker(cfg), publisher, clock.Real())

	importer := model.Requester{UserID: JobName, IsAdmin: true}
	res, err := timetable.Import(ctx, services.Resources, entries, importer, cfg.Log)
	if err != nil {
		cfg.Log.Error("Timetable import aborted", "imported", res.Imported, "failed", res.Failed, "error", err)
		return
	}
	cfg.Log.Info("Timetable import finished", "file", *file, "imported", res.Imported, "failed", res.Failed)
}
