package ingest

import (
	"context"
	"sync"

	"oitracker/pkg/errors"
)

// LocalLock serializes batches inside one process. Deployments with more
// than one replica use the Redis run lock instead.
type LocalLock struct {
	mu   sync.Mutex
	held bool
}

// NewLocalLock creates an unheld lock
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// TryAcquire takes the lock without waiting
func (l *LocalLock) TryAcquire(ctx context.Context) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil, errors.ErrBatchInProgress
	}
	l.held = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.held = false
			l.mu.Unlock()
		})
	}, nil
}
