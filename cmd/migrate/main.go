package main

import (
	"context"
	"os"
	"time"

	mongoMigration "reservo/internal/migrations/mongo"
	"reservo/pkg/config"

	"github.com/spf13/pflag"
)

const JobName = "mongo-migration"

func main() {
	timeout := pflag.Duration("timeout", 2*time.Minute, "upper bound for the whole migration")
	database := pflag.String("database", "", "target database (defaults to MONGO_DATABASE_NAME)")
	pflag.Parse()

	os.Exit(run(*timeout, *database))
}

func run(timeout time.Duration, database string) int {
	cfg := config.Load(JobName)
	if database == "" {
		database = cfg.MongoDatabaseName
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Applying Mongo schema", "database", database, "timeout", timeout)
	start := time.Now()
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, database, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "database", database, "error", err)
		return 1
	}
	cfg.Log.Info("Migration completed", "database", database, "duration", time.Since(start))
	return 0
}
