package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSweepJob_Interval(t *testing.T) {
	reg, _ := newTestRegistry(newMemStore())

	assert.Equal(t, 15*time.Minute, SessionSweepJob(reg, 30*time.Minute).Every)
	assert.Equal(t, time.Minute, SessionSweepJob(reg, 10*time.Second).Every)
	assert.Equal(t, "session-sweep", SessionSweepJob(reg, time.Hour).Name)
}

func TestSessionSweepJob_Run(t *testing.T) {
	reg, fc := newTestRegistry(newMemStore())
	reg.Get(context.Background(), "m-1")
	fc.Advance(time.Hour)

	SessionSweepJob(reg, 30*time.Minute).Run(context.Background())
	assert.Equal(t, 0, reg.Len())
}

func TestStartScheduler_RunsJobs(t *testing.T) {
	var runs atomic.Int32
	sched, err := StartScheduler(context.Background(), clockwork.NewRealClock(), ScheduledJob{
		Name:  "count",
		Every: 20 * time.Millisecond,
		Run:   func(context.Context) { runs.Add(1) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartScheduler_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	sched, err := StartScheduler(ctx, clockwork.NewRealClock(), ScheduledJob{
		Name:  "never",
		Every: 10 * time.Millisecond,
		Run:   func(context.Context) { runs.Add(1) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, runs.Load())
}
