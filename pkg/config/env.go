package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvStoreBackend = "STORE_BACKEND"
	EnvLockBackend  = "LOCK_BACKEND"

	EnvRedisURL           = "REDIS_URL"
	EnvRedisConnTimeout   = "REDIS_CONN_TIMEOUT"
	EnvLockTTL            = "LOCK_TTL"
	EnvLockAcquireTimeout = "LOCK_ACQUIRE_TIMEOUT"
	EnvLockRetryInterval  = "LOCK_RETRY_INTERVAL"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSuggestionWindow       = "SUGGESTION_WINDOW"
	EnvSuggestionStep         = "SUGGESTION_STEP"
	EnvSuggestionMaxSlots     = "SUGGESTION_MAX_SLOTS"
	EnvSuggestionMaxResources = "SUGGESTION_MAX_RESOURCES"

	EnvMinPriority         = "MIN_PRIORITY"
	EnvMaxPriority         = "MAX_PRIORITY"
	EnvDefaultPriority     = "DEFAULT_PRIORITY"
	EnvAutoApproveStandard = "AUTO_APPROVE_STANDARD"
	EnvMaxBookingDuration  = "MAX_BOOKING_DURATION"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"

	EnvKafkaEnabled          = "KAFKA_ENABLED"
	EnvKafkaEventsTopic      = "KAFKA_EVENTS_TOPIC"
	EnvKafkaDLQTopic         = "KAFKA_DLQ_TOPIC"
	EnvKafkaTimetableTopic   = "KAFKA_TIMETABLE_TOPIC"
	EnvKafkaTimetableGroupID = "KAFKA_TIMETABLE_GROUP_ID"
)
