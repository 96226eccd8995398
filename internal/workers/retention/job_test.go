package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/pkg/errors"
)

type fakePruner struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestNewJob_Validation(t *testing.T) {
	_, err := NewJob(&fakePruner{}, "every day", 30, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewJob(&fakePruner{}, "0 3 * * *", 0, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewJob(&fakePruner{}, "0 3 * * *", 30, nil)
	assert.NoError(t, err)
}

func TestJob_RunOnce(t *testing.T) {
	pruner := &fakePruner{deleted: 42}
	job, err := NewJob(pruner, "0 3 * * *", 30, time.UTC)
	require.NoError(t, err)

	now := time.Date(2025, 3, 31, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	deleted, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, deleted)
	require.Len(t, pruner.cutoffs, 1)
	assert.Equal(t, time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC), pruner.cutoffs[0])
}

func TestJob_RunOnceError(t *testing.T) {
	pruner := &fakePruner{err: errors.New("db down")}
	job, err := NewJob(pruner, "0 3 * * *", 7, nil)
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestJob_StartStop(t *testing.T) {
	job, err := NewJob(&fakePruner{}, "0 3 * * *", 30, nil)
	require.NoError(t, err)

	require.NoError(t, job.Start(context.Background()))
	assert.Error(t, job.Start(context.Background()))
	job.Stop()
	job.Stop()
}
