package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"reservo/internal/platform"
	"reservo/internal/timetablesync"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/kafka"
	kafka_config "reservo/pkg/kafka/config"
	kafka_middleware "reservo/pkg/kafka/middleware"

	"github.com/spf13/pflag"
)

const ServiceName = "timetable-sync"

func main() {
	source := pflag.String("source", "", "source stamped on entries that do not carry one")
	pflag.Parse()

	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	publisher, closePublisher, err := platform.OpenPublisher(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure event publisher", "error", err)
	}
	defer closePublisher()

	services := platform.NewServices(cfg, platform.OpenStores(cfg), platform.OpenLocker(cfg), publisher, clock.Real())
	handler := timetablesync.NewHandler(services.Resources, *source, cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaTimetableTopic, cfg.KafkaTimetableGroupID, cfg.KafkaDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log.Component("kafka")))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka consumer", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming timetable changes",
		"topic", cfg.KafkaTimetableTopic,
		"group_id", cfg.KafkaTimetableGroupID,
		"dlq_topic", cfg.KafkaDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Timetable consumer stopped", "error", err)
		return
	}
	cfg.Log.Info("Timetable consumer stopped")
}
