package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// VideoState is the simulated masterclass player state
type VideoState string

const (
	VideoIdle     VideoState = "idle"
	VideoWatching VideoState = "watching"
	VideoFinished VideoState = "finished"
)

const (
	VideoTickInterval  = 100 * time.Millisecond
	VideoTickIncrement = 2 // 50 ticks * 100ms = 5 seconds of "playback"
	VideoFinishDelay   = time.Second
)

type VideoSnapshot struct {
	State    VideoState `json:"state"`
	StepID   string     `json:"step_id,omitempty"`
	Progress int        `json:"progress"`
}

// VideoWatch fakes playback with a ticker: Idle -> Watching -> Finished -> Idle.
// Only the natural end calls onFinish; Close at any point discards progress.
type VideoWatch struct {
	clock       clockwork.Clock
	interval    time.Duration
	increment   int
	finishDelay time.Duration
	onFinish    func(stepID string)

	mu       sync.Mutex
	state    VideoState
	stepID   string
	progress int
	stop     chan struct{} // closed to halt the current run; nil when idle
}

func NewVideoWatch(clock clockwork.Clock, onFinish func(stepID string)) *VideoWatch {
	return &VideoWatch{
		clock:       clock,
		interval:    VideoTickInterval,
		increment:   VideoTickIncrement,
		finishDelay: VideoFinishDelay,
		onFinish:    onFinish,
		state:       VideoIdle,
	}
}

// Start (re)starts playback for stepID from 0. A run already in progress is discarded.
func (v *VideoWatch) Start(stepID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.haltLocked()
	v.state = VideoWatching
	v.stepID = stepID
	v.progress = 0

	stop := make(chan struct{})
	v.stop = stop
	// Created here rather than in run so the ticker exists as soon as Start returns.
	ticker := v.clock.NewTicker(v.interval)
	go v.run(stop, ticker, stepID)
}

// Close returns to Idle without completing anything.
func (v *VideoWatch) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.haltLocked()
	v.resetLocked()
}

func (v *VideoWatch) Snapshot() VideoSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return VideoSnapshot{State: v.state, StepID: v.stepID, Progress: v.progress}
}

func (v *VideoWatch) haltLocked() {
	if v.stop != nil {
		close(v.stop)
		v.stop = nil
	}
}

func (v *VideoWatch) resetLocked() {
	v.state = VideoIdle
	v.stepID = ""
	v.progress = 0
}

func (v *VideoWatch) run(stop chan struct{}, ticker clockwork.Ticker, stepID string) {
	defer ticker.Stop()

	for finished := false; !finished; {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			finished = v.tick(stop)
		}
	}
	ticker.Stop()

	timer := v.clock.NewTimer(v.finishDelay)
	v.mu.Lock()
	if v.stop != stop {
		v.mu.Unlock()
		timer.Stop()
		return
	}
	v.state = VideoFinished
	v.mu.Unlock()

	select {
	case <-stop:
		timer.Stop()
		return
	case <-timer.Chan():
	}

	// Stay Finished while the step is stored so the watch cannot be restarted
	// before the completion lands.
	if v.onFinish != nil {
		v.onFinish(stepID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stop != stop {
		return // closed or restarted during the callback
	}
	v.stop = nil
	v.resetLocked()
}

// tick advances the counter once and reports whether it reached 100.
func (v *VideoWatch) tick(stop chan struct{}) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stop != stop {
		return false // halted; run sees the closed channel next
	}
	v.progress += v.increment
	if v.progress >= 100 {
		v.progress = 100
		return true
	}
	return false
}
