package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reservo"
	DefaultMongoConnTimeout  = 10 * time.Second

	StoreMongo  = "mongo"
	StoreMemory = "memory"

	LockLocal = "local"
	LockRedis = "redis"
	LockMongo = "mongo"

	DefaultStoreBackend = StoreMongo
	DefaultLockBackend  = LockMongo

	DefaultRedisURL           = "redis://localhost:6379/0"
	DefaultRedisConnTimeout   = 5 * time.Second
	DefaultLockTTL            = 10 * time.Second
	DefaultLockAcquireTimeout = 5 * time.Second
	DefaultLockRetryInterval  = 25 * time.Millisecond

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSuggestionWindow       = 4 * time.Hour
	DefaultSuggestionStep         = 30 * time.Minute
	DefaultSuggestionMaxSlots     = 3
	DefaultSuggestionMaxResources = 3

	DefaultMinPriority         = 0
	DefaultMaxPriority         = 10
	DefaultDefaultPriority     = 1
	DefaultAutoApproveStandard = false
	DefaultMaxBookingDuration  = 30 * 24 * time.Hour

	DefaultSweepInterval  = 1 * time.Minute
	DefaultSweepBatchSize = 200

	DefaultKafkaEnabled          = false
	DefaultKafkaEventsTopic      = "reservo.events"
	DefaultKafkaDLQTopic         = "reservo.events.dlq"
	DefaultKafkaTimetableTopic   = "reservo.timetable"
	DefaultKafkaTimetableGroupID = "reservo-timetable-sync"

	DefaultPaginationLimit = 20
	MaxPaginationLimit     = 100
)
