// Package kafka_config holds the client settings shared by the lifecycle
// event producer and the timetable feed consumer.
package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"reservo/pkg/logger"
)

const (
	EnvKafkaBrokers          = "KAFKA_BROKERS"
	EnvKafkaClientID         = "KAFKA_CLIENT_ID"
	EnvKafkaEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"

	EnvProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvProducerRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"

	EnvConsumerStartOffset    = "KAFKA_CONSUMER_START_OFFSET"
	EnvConsumerMaxBytes       = "KAFKA_CONSUMER_MAX_BYTES"
	EnvConsumerMaxWait        = "KAFKA_CONSUMER_MAX_WAIT"
	EnvConsumerCommitInterval = "KAFKA_CONSUMER_COMMIT_INTERVAL"
	EnvConsumerSessionTimeout = "KAFKA_CONSUMER_SESSION_TIMEOUT"
	EnvConsumerMaxRetries     = "KAFKA_CONSUMER_MAX_RETRIES"
	EnvConsumerRetryBackoff   = "KAFKA_CONSUMER_RETRY_BACKOFF"
)

const (
	DefaultBrokers  = "localhost:9092"
	DefaultClientID = "reservo"

	// Lifecycle events feed notifications, so writes wait for every replica
	// and are never fire-and-forget.
	DefaultProducerMaxAttempts  = 5
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"

	// A new timetable-sync group replays the feed from the beginning.
	DefaultConsumerStartOffset    = -2
	DefaultConsumerMaxBytes       = 1 << 20
	DefaultConsumerMaxWait        = 500 * time.Millisecond
	DefaultConsumerCommitInterval = 0
	DefaultConsumerSessionTimeout = 10 * time.Second
	DefaultConsumerMaxRetries     = 5
	DefaultConsumerRetryBackoff   = 500 * time.Millisecond
)

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 all, 0 none, 1 leader
	Compression  string // none, gzip, snappy, lz4, zstd
}

type ConsumerConfig struct {
	StartOffset    int64 // -1 newest, -2 oldest
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration // 0 commits synchronously
	SessionTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type Config struct {
	Brokers          []string
	ClientID         string
	EnableMiddleware bool

	Producer ProducerConfig
	Consumer ConsumerConfig
}

func Default() *Config {
	return &Config{
		Brokers:          []string{DefaultBrokers},
		ClientID:         DefaultClientID,
		EnableMiddleware: true,
		Producer: ProducerConfig{
			MaxAttempts:  DefaultProducerMaxAttempts,
			BatchTimeout: DefaultProducerBatchTimeout,
			RequireAcks:  DefaultProducerRequireAcks,
			Compression:  DefaultProducerCompression,
		},
		Consumer: ConsumerConfig{
			StartOffset:    DefaultConsumerStartOffset,
			MaxBytes:       DefaultConsumerMaxBytes,
			MaxWait:        DefaultConsumerMaxWait,
			CommitInterval: DefaultConsumerCommitInterval,
			SessionTimeout: DefaultConsumerSessionTimeout,
			MaxRetries:     DefaultConsumerMaxRetries,
			RetryBackoff:   DefaultConsumerRetryBackoff,
		},
	}
}

// Load overlays the environment on Default. It returns an error instead of
// exiting so callers decide whether Kafka is optional.
func Load() (*Config, error) {
	cfg := Default()

	if raw := os.Getenv(EnvKafkaBrokers); raw != "" {
		cfg.Brokers = cfg.Brokers[:0]
		for _, b := range strings.Split(raw, ",") {
			cfg.Brokers = append(cfg.Brokers, strings.TrimSpace(b))
		}
	}
	cfg.ClientID = envStr(EnvKafkaClientID, cfg.ClientID)
	cfg.EnableMiddleware = envBool(EnvKafkaEnableMiddleware, cfg.EnableMiddleware)

	p := &cfg.Producer
	p.MaxAttempts = envInt(EnvProducerMaxAttempts, p.MaxAttempts)
	p.BatchTimeout = envDuration(EnvProducerBatchTimeout, p.BatchTimeout)
	p.RequireAcks = envInt(EnvProducerRequireAcks, p.RequireAcks)
	p.Compression = envStr(EnvProducerCompression, p.Compression)

	c := &cfg.Consumer
	c.StartOffset = int64(envInt(EnvConsumerStartOffset, int(c.StartOffset)))
	c.MaxBytes = envInt(EnvConsumerMaxBytes, c.MaxBytes)
	c.MaxWait = envDuration(EnvConsumerMaxWait, c.MaxWait)
	c.CommitInterval = envDuration(EnvConsumerCommitInterval, c.CommitInterval)
	c.SessionTimeout = envDuration(EnvConsumerSessionTimeout, c.SessionTimeout)
	c.MaxRetries = envInt(EnvConsumerMaxRetries, c.MaxRetries)
	c.RetryBackoff = envDuration(EnvConsumerRetryBackoff, c.RetryBackoff)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "at least one broker is required")
	}
	for i, b := range cfg.Brokers {
		if b == "" {
			problems = append(problems, fmt.Sprintf("broker %d is empty", i))
		}
	}

	switch cfg.Producer.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		problems = append(problems, fmt.Sprintf("producer compression must be one of [none gzip snappy lz4 zstd], got: %s", cfg.Producer.Compression))
	}
	switch cfg.Producer.RequireAcks {
	case -1, 0, 1:
	default:
		problems = append(problems, fmt.Sprintf("producer require acks must be -1, 0 or 1, got: %d", cfg.Producer.RequireAcks))
	}
	if cfg.Consumer.StartOffset < -2 {
		problems = append(problems, fmt.Sprintf("consumer start offset must be -1, -2 or >= 0, got: %d", cfg.Consumer.StartOffset))
	}

	for name, n := range map[string]int{
		"producer max attempts": cfg.Producer.MaxAttempts,
		"consumer max bytes":    cfg.Consumer.MaxBytes,
	} {
		if n <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %d", name, n))
		}
	}
	for name, d := range map[string]time.Duration{
		"producer batch timeout":   cfg.Producer.BatchTimeout,
		"consumer max wait":        cfg.Consumer.MaxWait,
		"consumer session timeout": cfg.Consumer.SessionTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if cfg.Consumer.CommitInterval < 0 || cfg.Consumer.RetryBackoff < 0 || cfg.Consumer.MaxRetries < 0 {
		problems = append(problems, "consumer commit interval, retry backoff and max retries cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid kafka configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
