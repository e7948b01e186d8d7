//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"

	"reservo/pkg/client"

	"github.com/joho/godotenv"
)

// EnvFile is read, when present, before the TEST_* variables are resolved.
const EnvFile = ".env.test"

const DefaultHealthCheckTimeout = 3 * ConnectionTimeout

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	_ = godotenv.Load(EnvFile)
	return &TestEnv{
		MongoURI:     envOr("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: envOr("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    envOr("TEST_SERVER_URL", "http://localhost:"+envOr("TEST_SERVER_PORT", "8080")),
	}
}

// Start empties the reservo collections, waits for /ready and registers the
// teardown on t. Collections are emptied rather than dropped so migrated
// indexes stay in place.
func (e *TestEnv) Start(t *testing.T) (*MongoHelper, *client.ReservoClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)
	t.Cleanup(func() {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	})

	c := client.NewReservoClient(e.ServerURL)
	if err := c.WaitForHealthy(context.Background(), DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("reservo at %s not ready: %v", e.ServerURL, err)
	}
	return mongo, c
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
