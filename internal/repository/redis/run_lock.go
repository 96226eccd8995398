package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oitracker/pkg/errors"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock is a cross-process mutex guarding batch runs.
// The TTL frees the lock if its holder dies mid-batch.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRunLock creates a lock stored under "lock:<name>"
func NewRunLock(client *redis.Client, name string, ttl time.Duration) *RunLock {
	return &RunLock{client: client, key: "lock:" + name, ttl: ttl}
}

// TryAcquire takes the lock without waiting. It returns a release func,
// or errors.ErrBatchInProgress while another holder has it.
func (l *RunLock) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire run lock")
	}
	if !ok {
		return nil, errors.ErrBatchInProgress
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}, nil
}
