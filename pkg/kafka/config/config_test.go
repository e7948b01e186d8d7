package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultBrokers}, cfg.Brokers)
	assert.Equal(t, int64(-2), cfg.Consumer.StartOffset)
	assert.Equal(t, -1, cfg.Producer.RequireAcks)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092")
	t.Setenv(EnvProducerCompression, "zstd")
	t.Setenv(EnvConsumerRetryBackoff, "2s")
	t.Setenv(EnvKafkaEnableMiddleware, "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, "zstd", cfg.Producer.Compression)
	assert.Equal(t, 2*time.Second, cfg.Consumer.RetryBackoff)
	assert.False(t, cfg.EnableMiddleware)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Brokers = []string{""}
	cfg.Producer.Compression = "brotli"
	cfg.Producer.RequireAcks = 2
	cfg.Consumer.MaxWait = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"broker 0 is empty", "brotli", "require acks", "consumer max wait"} {
		assert.Contains(t, err.Error(), want)
	}
}
