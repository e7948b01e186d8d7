package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults(nil)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 4*time.Hour, cfg.SuggestionWindow)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := Defaults(nil)
	cfg.Port = "0"
	cfg.LockBackend = "zookeeper"
	cfg.DefaultPriority = 99
	cfg.SweepBatchSize = 0
	cfg.MaxBookingDuration = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. Port")
	assert.Contains(t, err.Error(), "LockBackend")
	assert.Contains(t, err.Error(), "DefaultPriority")
	assert.Contains(t, err.Error(), "SweepBatchSize")
	assert.Contains(t, err.Error(), "MaxBookingDuration")
}

func TestValidate_MongoLockNeedsMongoStore(t *testing.T) {
	cfg := Defaults(nil)
	cfg.LockBackend = LockMongo
	assert.Error(t, cfg.Validate())

	cfg.StoreBackend = StoreMongo
	assert.NoError(t, cfg.Validate())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("RESERVO_TEST_NUM", "12")
	t.Setenv("RESERVO_TEST_BOOL", "true")
	t.Setenv("RESERVO_TEST_DUR", "90s")
	t.Setenv("RESERVO_TEST_BAD", "abc")

	assert.Equal(t, 12, getEnvNum("RESERVO_TEST_NUM", 1))
	assert.Equal(t, 1, getEnvNum("RESERVO_TEST_BAD", 1))
	assert.True(t, getEnvBool("RESERVO_TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvDuration("RESERVO_TEST_DUR", time.Second))
	assert.Equal(t, "x", getEnvStr("RESERVO_TEST_MISSING", "x"))
}

func TestRedaction(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactMongoURI("mongodb://user:secret@db:27017"))
	assert.Equal(t, "redis://***@cache:6379/0", redactRedisURL("redis://:secret@cache:6379/0"))
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(0))
	assert.Equal(t, MaxPaginationLimit, NormalizePaginationLimit(1000))
	assert.Equal(t, 5, NormalizePaginationLimit(5))
	assert.Equal(t, int64(0), NormalizeOffset(-3))
}
