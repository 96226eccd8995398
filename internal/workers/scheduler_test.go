package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oitracker/pkg/errors"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) GetRunCount() int {
	return int(atomic.LoadInt32(&m.runCount))
}

type pacedWorker struct {
	*mockWorker
	delay time.Duration
	skips int32
}

func (p *pacedWorker) NextDelay(elapsed time.Duration, ran bool, err error) time.Duration {
	if !ran {
		atomic.AddInt32(&p.skips, 1)
	}
	return p.delay
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("test-worker-1", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	assert.GreaterOrEqual(t, worker.GetRunCount(), 2, "immediate run plus at least one interval")
	assert.EqualValues(t, worker.GetRunCount(), worker.Health().RunCount)
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DisabledWorkerSkipsRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newMockWorker("enabled-worker", 50*time.Millisecond, true)
	disabled := newMockWorker("disabled-worker", 50*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.GetRunCount(), 0)
	assert.Equal(t, 0, disabled.GetRunCount())
}

func TestScheduler_EnableWakesWorker(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("sleepy", time.Hour, false)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	defer func() { _ = scheduler.Stop() }()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, worker.GetRunCount())

	worker.SetEnabled(true)
	assert.Eventually(t, func() bool { return worker.GetRunCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_PacedWorker(t *testing.T) {
	scheduler := NewScheduler()

	worker := &pacedWorker{
		mockWorker: newMockWorker("paced", time.Hour, true),
		delay:      20 * time.Millisecond,
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.GetRunCount(), 3, "the paced delay overrides the hour interval")

	worker.SetEnabled(false)
	assert.Equal(t, 20*time.Millisecond, scheduler.executeWorker(worker))
	assert.EqualValues(t, 1, atomic.LoadInt32(&worker.skips))
}

func TestScheduler_RecoversPanicsAndRecordsErrors(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("flaky", 20*time.Millisecond, true)
	var calls int32
	worker.runFunc = func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		return errors.New("still failing")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.GetRunCount(), 2, "worker keeps running after a panic")
	health := worker.Health()
	assert.Greater(t, health.ErrorCount, int64(0))
	assert.EqualError(t, health.LastError, "still failing")
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))
	assert.NoError(t, scheduler.Stop())
	assert.Error(t, scheduler.Stop())
}

func TestScheduler_GetWorkers(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("worker-1", 100*time.Millisecond, true))
	scheduler.RegisterWorker(newMockWorker("worker-2", 200*time.Millisecond, false))

	workers := scheduler.GetWorkers()
	require.Len(t, workers, 2)
	assert.Equal(t, "worker-1", workers[0].Name())
	assert.Equal(t, "worker-2", workers[1].Name())
}

func TestBaseWorker_SetInterval(t *testing.T) {
	w := NewBaseWorker("w", time.Second, true)
	w.SetInterval(3 * time.Second)
	assert.Equal(t, 3*time.Second, w.Interval())

	select {
	case <-w.Wake():
	default:
		t.Fatal("SetInterval should wake the loop")
	}
}
