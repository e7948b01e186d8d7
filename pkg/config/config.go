package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"reservo/pkg/client"
	"reservo/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	StoreBackend string
	LockBackend  string

	RedisURL           string
	RedisConnTimeout   time.Duration
	LockTTL            time.Duration
	LockAcquireTimeout time.Duration
	LockRetryInterval  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SuggestionWindow       time.Duration
	SuggestionStep         time.Duration
	SuggestionMaxSlots     int
	SuggestionMaxResources int

	MinPriority         int
	MaxPriority         int
	DefaultPriority     int
	AutoApproveStandard bool
	MaxBookingDuration  time.Duration

	SweepInterval  time.Duration
	SweepBatchSize int

	KafkaEnabled          bool
	KafkaEventsTopic      string
	KafkaDLQTopic         string
	KafkaTimetableTopic   string
	KafkaTimetableGroupID string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment. Invalid settings
// are fatal.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		StoreBackend: getEnvStr(EnvStoreBackend, DefaultStoreBackend),
		LockBackend:  getEnvStr(EnvLockBackend, DefaultLockBackend),

		RedisURL:           getEnvStr(EnvRedisURL, DefaultRedisURL),
		RedisConnTimeout:   getEnvDuration(EnvRedisConnTimeout, DefaultRedisConnTimeout),
		LockTTL:            getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockAcquireTimeout: getEnvDuration(EnvLockAcquireTimeout, DefaultLockAcquireTimeout),
		LockRetryInterval:  getEnvDuration(EnvLockRetryInterval, DefaultLockRetryInterval),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SuggestionWindow:       getEnvDuration(EnvSuggestionWindow, DefaultSuggestionWindow),
		SuggestionStep:         getEnvDuration(EnvSuggestionStep, DefaultSuggestionStep),
		SuggestionMaxSlots:     getEnvNum(EnvSuggestionMaxSlots, DefaultSuggestionMaxSlots),
		SuggestionMaxResources: getEnvNum(EnvSuggestionMaxResources, DefaultSuggestionMaxResources),

		MinPriority:         getEnvNum(EnvMinPriority, DefaultMinPriority),
		MaxPriority:         getEnvNum(EnvMaxPriority, DefaultMaxPriority),
		DefaultPriority:     getEnvNum(EnvDefaultPriority, DefaultDefaultPriority),
		AutoApproveStandard: getEnvBool(EnvAutoApproveStandard, DefaultAutoApproveStandard),
		MaxBookingDuration:  getEnvDuration(EnvMaxBookingDuration, DefaultMaxBookingDuration),

		SweepInterval:  getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepBatchSize: getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),

		KafkaEnabled:          getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaEventsTopic:      getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaDLQTopic:         getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),
		KafkaTimetableTopic:   getEnvStr(EnvKafkaTimetableTopic, DefaultKafkaTimetableTopic),
		KafkaTimetableGroupID: getEnvStr(EnvKafkaTimetableGroupID, DefaultKafkaTimetableGroupID),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if envFileErr != nil {
		cfg.Log.Debug("No .env file loaded, using process environment", "reason", envFileErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Defaults returns a configuration built from the compiled-in defaults
// without touching the environment.
func Defaults(log *logger.Logger) *Config {
	if log == nil {
		log = logger.Discard()
	}
	return &Config{
		MongoURI:               DefaultMongoURI,
		MongoDatabaseName:      DefaultMongoDatabaseName,
		MongoConnTimeout:       DefaultMongoConnTimeout,
		StoreBackend:           StoreMemory,
		LockBackend:            LockLocal,
		RedisURL:               DefaultRedisURL,
		RedisConnTimeout:       DefaultRedisConnTimeout,
		LockTTL:                DefaultLockTTL,
		LockAcquireTimeout:     DefaultLockAcquireTimeout,
		LockRetryInterval:      DefaultLockRetryInterval,
		Port:                   DefaultPort,
		RateLimitRequests:      DefaultRateLimitRequests,
		RateLimitWindow:        DefaultRateLimitWindow,
		RequestTimeout:         DefaultRequestTimeout,
		IdempotencyTTL:         DefaultIdempotencyTTL,
		MaxRequestSize:         DefaultMaxRequestSize,
		ReadTimeout:            DefaultReadTimeout,
		WriteTimeout:           DefaultWriteTimeout,
		IdleTimeout:            DefaultIdleTimeout,
		ShutdownTimeout:        DefaultShutdownTimeout,
		SuggestionWindow:       DefaultSuggestionWindow,
		SuggestionStep:         DefaultSuggestionStep,
		SuggestionMaxSlots:     DefaultSuggestionMaxSlots,
		SuggestionMaxResources: DefaultSuggestionMaxResources,
		MinPriority:            DefaultMinPriority,
		MaxPriority:            DefaultMaxPriority,
		DefaultPriority:        DefaultDefaultPriority,
		AutoApproveStandard:    DefaultAutoApproveStandard,
		MaxBookingDuration:     DefaultMaxBookingDuration,
		SweepInterval:          DefaultSweepInterval,
		SweepBatchSize:         DefaultSweepBatchSize,
		KafkaEventsTopic:       DefaultKafkaEventsTopic,
		KafkaDLQTopic:          DefaultKafkaDLQTopic,
		KafkaTimetableTopic:    DefaultKafkaTimetableTopic,
		KafkaTimetableGroupID:  DefaultKafkaTimetableGroupID,
		Log:                    log,
		Client:                 client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.RedisConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case StoreMongo, StoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [%s, %s], got: %s", StoreMongo, StoreMemory, cfg.StoreBackend))
	}
	switch cfg.LockBackend {
	case LockLocal, LockRedis, LockMongo:
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [%s, %s, %s], got: %s", LockLocal, LockRedis, LockMongo, cfg.LockBackend))
	}
	if cfg.StoreBackend == StoreMemory && cfg.LockBackend == LockMongo {
		errors = append(errors, "LockBackend mongo requires StoreBackend mongo")
	}

	if cfg.StoreBackend == StoreMongo || cfg.LockBackend == LockMongo {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}
	if cfg.LockBackend == LockRedis && !regexp.MustCompile(`^rediss?://`).MatchString(cfg.RedisURL) {
		errors = append(errors, "RedisURL must start with 'redis://' or 'rediss://'")
	}

	for name, d := range map[string]time.Duration{
		"LockTTL":            cfg.LockTTL,
		"LockAcquireTimeout": cfg.LockAcquireTimeout,
		"LockRetryInterval":  cfg.LockRetryInterval,
		"RateLimitWindow":    cfg.RateLimitWindow,
		"RequestTimeout":     cfg.RequestTimeout,
		"IdempotencyTTL":     cfg.IdempotencyTTL,
		"ReadTimeout":        cfg.ReadTimeout,
		"WriteTimeout":       cfg.WriteTimeout,
		"IdleTimeout":        cfg.IdleTimeout,
		"ShutdownTimeout":    cfg.ShutdownTimeout,
		"SuggestionStep":     cfg.SuggestionStep,
		"SweepInterval":      cfg.SweepInterval,
		"MaxBookingDuration": cfg.MaxBookingDuration,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if cfg.SuggestionWindow < 0 {
		errors = append(errors, fmt.Sprintf("SuggestionWindow cannot be negative, got: %s", cfg.SuggestionWindow))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.SuggestionMaxSlots < 0 || cfg.SuggestionMaxResources < 0 {
		errors = append(errors, "SuggestionMaxSlots and SuggestionMaxResources cannot be negative")
	}
	if cfg.SweepBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}

	if cfg.MinPriority < 0 {
		errors = append(errors, fmt.Sprintf("MinPriority cannot be negative, got: %d", cfg.MinPriority))
	}
	if cfg.MaxPriority < cfg.MinPriority {
		errors = append(errors, fmt.Sprintf("MaxPriority (%d) must be >= MinPriority (%d)", cfg.MaxPriority, cfg.MinPriority))
	}
	if cfg.DefaultPriority < cfg.MinPriority || cfg.DefaultPriority > cfg.MaxPriority {
		errors = append(errors, fmt.Sprintf("DefaultPriority (%d) must be between MinPriority (%d) and MaxPriority (%d)", cfg.DefaultPriority, cfg.MinPriority, cfg.MaxPriority))
	}

	if cfg.KafkaEnabled && (cfg.KafkaEventsTopic == "" || cfg.KafkaTimetableTopic == "" || cfg.KafkaTimetableGroupID == "") {
		errors = append(errors, "Kafka topics and timetable group id cannot be empty when Kafka is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"store_backend", cfg.StoreBackend,
		"lock_backend", cfg.LockBackend,
		"redis_url", redactRedisURL(cfg.RedisURL),
		"lock_ttl", cfg.LockTTL,
		"lock_acquire_timeout", cfg.LockAcquireTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"suggestion_window", cfg.SuggestionWindow,
		"suggestion_step", cfg.SuggestionStep,
		"suggestion_max_slots", cfg.SuggestionMaxSlots,
		"suggestion_max_resources", cfg.SuggestionMaxResources,
		"min_priority", cfg.MinPriority,
		"max_priority", cfg.MaxPriority,
		"default_priority", cfg.DefaultPriority,
		"auto_approve_standard", cfg.AutoApproveStandard,
		"max_booking_duration", cfg.MaxBookingDuration,
		"sweep_interval", cfg.SweepInterval,
		"sweep_batch_size", cfg.SweepBatchSize,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_events_topic", cfg.KafkaEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactRedisURL(uri string) string {
	credentialRegex := regexp.MustCompile(`(rediss?://)[^@]*@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPaginationLimit
	} else if limit > MaxPaginationLimit {
		limit = MaxPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
