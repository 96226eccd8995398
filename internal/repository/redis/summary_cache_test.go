package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/internal/domain/snapshot"
	"oitracker/internal/testsupport"
	"oitracker/pkg/errors"
)

func TestSummaryCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cache := NewSummaryCache(testsupport.NewRedisClient(t), time.Minute)
	ctx := context.Background()

	_, err := cache.GetSummary(ctx, "RELIANCE")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	summary := &snapshot.Summary{
		Historical: []snapshot.HistoricalRow{{Stock: "RELIANCE", Category: "Call", Strike: "2500"}},
		Live:       []snapshot.LiveRow{{Section: snapshot.SectionCallSupport, Strike: "2500", IsNewStrike: ""}},
	}
	require.NoError(t, cache.SetSummary(ctx, "reliance", summary))

	got, err := cache.GetSummary(ctx, "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	require.NoError(t, cache.SetSummary(ctx, "TCS", &snapshot.Summary{}))
	require.NoError(t, cache.Invalidate(ctx, "RELIANCE"))

	_, err = cache.GetSummary(ctx, "RELIANCE")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = cache.GetSummary(ctx, "TCS")
	assert.NoError(t, err)

	require.NoError(t, cache.InvalidateAll(ctx))
	_, err = cache.GetSummary(ctx, "TCS")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRunLock_Exclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := testsupport.NewRedisClient(t)
	lock := NewRunLock(client, "batch", time.Minute)
	ctx := context.Background()

	release, err := lock.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = NewRunLock(client, "batch", time.Minute).TryAcquire(ctx)
	assert.ErrorIs(t, err, errors.ErrBatchInProgress)

	release()

	release2, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	release2()
}
