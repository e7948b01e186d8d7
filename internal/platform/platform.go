// Package platform builds the backends shared by every reservo binary from
// the loaded configuration.
package platform

import (
	"fmt"

	bookingsrepo "reservo/internal/bookings/repository"
	"reservo/internal/events"
	keysrepo "reservo/internal/keys/repository"
	resourcesrepo "reservo/internal/resources/repository"
	"reservo/internal/store/memstore"
	"reservo/pkg/config"
	"reservo/pkg/kafka"
	kafka_config "reservo/pkg/kafka/config"
	kafka_middleware "reservo/pkg/kafka/middleware"
	"reservo/pkg/lock"
)

type Stores struct {
	Bookings  bookingsrepo.BookingRepository
	Resources resourcesrepo.ResourceRepository
	Issues    resourcesrepo.IssueRepository
	Timetable resourcesrepo.TimetableRepository
	Keys      keysrepo.KeyTransactionRepository
}

// OpenStores connects to Mongo when it is the configured store. The memory
// store is process-local and only meant for development and tests.
func OpenStores(cfg *config.Config) Stores {
	if cfg.StoreBackend == config.StoreMemory {
		s := memstore.New()
		cfg.Log.Warn("Using in-memory store; data is lost on restart")
		return Stores{
			Bookings:  s.Bookings(),
			Resources: s.Resources(),
			Issues:    s.Issues(),
			Timetable: s.Timetable(),
			Keys:      s.KeyTransactions(),
		}
	}

	if cfg.Client.Mongo == nil {
		cfg.SetMongo()
	}
	return Stores{
		Bookings:  bookingsrepo.NewMongoBookingRepository(cfg),
		Resources: resourcesrepo.NewMongoResourceRepository(cfg),
		Issues:    resourcesrepo.NewMongoIssueRepository(cfg),
		Timetable: resourcesrepo.NewMongoTimetableRepository(cfg),
		Keys:      keysrepo.NewMongoKeyTransactionRepository(cfg),
	}
}

func lockOptions(cfg *config.Config) lock.Options {
	return lock.Options{
		TTL:            cfg.LockTTL,
		AcquireTimeout: cfg.LockAcquireTimeout,
		RetryInterval:  cfg.LockRetryInterval,
	}
}

// OpenLocker returns the configured lock backend wrapped with wait metrics.
// Only the redis and mongo backends serialize across instances.
func OpenLocker(cfg *config.Config) lock.Locker {
	opts := lockOptions(cfg)

	var locker lock.Locker
	switch cfg.LockBackend {
	case config.LockRedis:
		if cfg.Client.Redis == nil {
			cfg.SetRedis()
		}
		locker = lock.NewRedisLocker(cfg.Client.Redis, opts)
	case config.LockMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		locker = lock.NewMongoLocker(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), opts)
	default:
		cfg.Log.Warn("Using process-local locks; run a single instance only")
		locker = lock.NewLocalLocker(opts)
	}

	cfg.Log.Info("Lock backend configured", "backend", cfg.LockBackend, "ttl", opts.TTL)
	return lock.WithMetrics(locker)
}

// OpenPublisher returns a Kafka publisher when Kafka is enabled and a log
// publisher otherwise. The returned close func is never nil.
func OpenPublisher(cfg *config.Config) (events.Publisher, func(), error) {
	if !cfg.KafkaEnabled {
		return events.NewLogPublisher(cfg.Log), func() {}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load kafka config: %w", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaEventsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log.Component("kafka")))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	cfg.Log.Info("Publishing lifecycle events to Kafka", "topic", cfg.KafkaEventsTopic, "brokers", kafkaCfg.Brokers)
	closeFn := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka producer", "error", err)
		}
	}
	return events.NewKafkaPublisher(producer), closeFn, nil
}
