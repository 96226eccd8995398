package testsupport

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	redisclient "oitracker/internal/adapters/redis"
)

// NewRedisClient connects through the application's redis adapter so tests
// run with the same timeouts as production. The selected database is
// flushed before the test and again on cleanup, so point REDIS_DB at a
// scratch database.
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	conn, err := redisclient.NewClient(RedisConfigFromEnv(t))
	if err != nil {
		t.Fatalf("redis test database unavailable: %v", err)
	}

	flush := func() error { return conn.Client().FlushDB(context.Background()).Err() }
	if err := flush(); err != nil {
		_ = conn.Close()
		t.Fatalf("flush redis: %v", err)
	}

	t.Cleanup(func() {
		_ = flush()
		_ = conn.Close()
	})
	return conn.Client()
}
