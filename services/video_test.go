package services

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advanceTicks moves the fake clock one tick at a time, waiting for each tick to land.
func advanceTicks(t *testing.T, fc *clockwork.FakeClock, v *VideoWatch, n int) {
	t.Helper()
	start := v.Snapshot().Progress
	for i := 1; i <= n; i++ {
		fc.Advance(VideoTickInterval)
		want := start + i*VideoTickIncrement
		require.Eventually(t, func() bool {
			return v.Snapshot().Progress == want
		}, time.Second, time.Millisecond, "tick %d", i)
	}
}

// playToFinish runs a fresh watch to 100% and waits for the Finished state.
func playToFinish(t *testing.T, fc *clockwork.FakeClock, v *VideoWatch) {
	t.Helper()
	advanceTicks(t, fc, v, 100/VideoTickIncrement)
	require.Eventually(t, func() bool {
		return v.Snapshot().State == VideoFinished
	}, time.Second, time.Millisecond)
}

type finishRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *finishRecorder) record(stepID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, stepID)
}

func (r *finishRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

func TestVideoWatch_FullRun(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := &finishRecorder{}
	v := NewVideoWatch(fc, rec.record)
	t.Cleanup(v.Close)

	assert.Equal(t, VideoSnapshot{State: VideoIdle}, v.Snapshot())

	v.Start("3")
	assert.Equal(t, VideoSnapshot{State: VideoWatching, StepID: "3"}, v.Snapshot())

	advanceTicks(t, fc, v, 25)
	assert.Equal(t, 50, v.Snapshot().Progress)

	advanceTicks(t, fc, v, 25)
	require.Eventually(t, func() bool {
		return v.Snapshot().State == VideoFinished
	}, time.Second, time.Millisecond)
	assert.Equal(t, 100, v.Snapshot().Progress)
	assert.Empty(t, rec.get())

	fc.Advance(VideoFinishDelay)
	require.Eventually(t, func() bool {
		return len(rec.get()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"3"}, rec.get())
	require.Eventually(t, func() bool {
		return v.Snapshot() == VideoSnapshot{State: VideoIdle}
	}, time.Second, time.Millisecond)
}

func TestVideoWatch_StaysFinishedUntilCallbackReturns(t *testing.T) {
	fc := clockwork.NewFakeClock()
	entered := make(chan struct{})
	release := make(chan struct{})
	v := NewVideoWatch(fc, func(string) {
		close(entered)
		<-release
	})
	t.Cleanup(v.Close)

	v.Start("3")
	playToFinish(t, fc, v)
	fc.Advance(VideoFinishDelay)
	<-entered

	assert.Equal(t, VideoSnapshot{State: VideoFinished, StepID: "3", Progress: 100}, v.Snapshot())

	close(release)
	require.Eventually(t, func() bool {
		return v.Snapshot().State == VideoIdle
	}, time.Second, time.Millisecond)
}

func TestVideoWatch_CloseDiscardsProgress(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := &finishRecorder{}
	v := NewVideoWatch(fc, rec.record)

	v.Start("3")
	advanceTicks(t, fc, v, 20)
	v.Close()

	assert.Equal(t, VideoSnapshot{State: VideoIdle}, v.Snapshot())

	fc.Advance(time.Minute)
	assert.Never(t, func() bool {
		return len(rec.get()) > 0 || v.Snapshot().Progress > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestVideoWatch_RestartResetsProgress(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := &finishRecorder{}
	v := NewVideoWatch(fc, rec.record)
	t.Cleanup(v.Close)

	v.Start("3")
	advanceTicks(t, fc, v, 30)

	v.Start("3")
	assert.Equal(t, 0, v.Snapshot().Progress)

	playToFinish(t, fc, v)
	fc.Advance(VideoFinishDelay)
	require.Eventually(t, func() bool {
		return len(rec.get()) == 1
	}, time.Second, time.Millisecond)
}

func TestVideoWatch_CloseWhenIdle(t *testing.T) {
	v := NewVideoWatch(clockwork.NewFakeClock(), nil)
	v.Close()
	v.Close()
	assert.Equal(t, VideoIdle, v.Snapshot().State)
}
