package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"community-hub/models"
	"community-hub/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrUnknownStep = errors.New("unknown quest step")

// ActivateOutcome says what activating a step did
type ActivateOutcome string

const (
	ActivateAlreadyCompleted ActivateOutcome = "already_completed"
	ActivateInFlight         ActivateOutcome = "in_flight"
	ActivateVideoStarted     ActivateOutcome = "video_started"
	ActivateCompleted        ActivateOutcome = "completed"
)

type QuestSnapshot struct {
	QuestID         string             `json:"quest_id"`
	Steps           []models.QuestStep `json:"steps"`
	ProgressPercent int                `json:"progress_percent"`
	Completed       bool               `json:"completed"`
	Acknowledgment  string             `json:"acknowledgment,omitempty"`
	Video           VideoSnapshot      `json:"video"`
}

// QuestEngine holds one member's onboarding checklist.
// A step's completed flag only flips after its progress row is stored.
type QuestEngine struct {
	identity Identity
	questID  string
	store    ProgressStore
	clock    clockwork.Clock
	timeout  time.Duration

	// base context for completions triggered by the video timer, cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	steps []models.QuestStep
	video *VideoWatch
}

type QuestOption func(*QuestEngine)

// WithQuestStoreTimeout bounds every store call made by the engine.
func WithQuestStoreTimeout(d time.Duration) QuestOption {
	return func(e *QuestEngine) { e.timeout = d }
}

// WithQuestSteps replaces the default onboarding catalog.
func WithQuestSteps(steps []models.QuestStep) QuestOption {
	return func(e *QuestEngine) { e.steps = models.CloneSteps(steps) }
}

func NewQuestEngine(identity Identity, store ProgressStore, clock clockwork.Clock, opts ...QuestOption) *QuestEngine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &QuestEngine{
		identity: identity,
		questID:  models.OnboardingQuestID,
		store:    store,
		clock:    clock,
		ctx:      ctx,
		cancel:   cancel,
		steps:    models.CloneSteps(models.OnboardingSteps),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.video = NewVideoWatch(clock, e.finishVideo)
	return e
}

// LoadProgress merges persisted completions into the checklist and returns the
// persisted step ids. On a read error the checklist is left as is and the set is empty.
func (e *QuestEngine) LoadProgress(ctx context.Context) map[string]struct{} {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	completed := make(map[string]struct{})
	ids, err := e.store.CompletedStepIDs(ctx, e.identity.MemberID, e.questID)
	if err != nil {
		utils.ReportError("QUEST", err, map[string]interface{}{"member_id": e.identity.MemberID, "op": "load"})
		return completed
	}
	for _, id := range ids {
		completed[id] = struct{}{}
	}

	e.mu.Lock()
	for i := range e.steps {
		if _, ok := completed[e.steps[i].ID]; ok {
			e.steps[i].Completed = true
			e.steps[i].Status = models.MutationConfirmed
		}
	}
	pct := e.progressLocked()
	e.mu.Unlock()

	log.Printf("📋 [QUEST] loaded %d completion(s) for %s → %d%%", len(ids), e.identity.MemberID, pct)
	return completed
}

// Activate reacts to a click on a step. Video steps start the simulated watch;
// every other kind completes on the member's word.
func (e *QuestEngine) Activate(ctx context.Context, stepID string) (ActivateOutcome, error) {
	// Sampled before the step: a finished watch is completing its step right now.
	watch := e.video.Snapshot()

	e.mu.Lock()
	idx := e.indexLocked(stepID)
	if idx < 0 {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	step := e.steps[idx]
	e.mu.Unlock()

	switch {
	case step.Completed:
		return ActivateAlreadyCompleted, nil
	case step.Status == models.MutationPending:
		return ActivateInFlight, nil
	case step.Kind == models.StepKindVideo && watch.State == VideoFinished && watch.StepID == step.ID:
		return ActivateInFlight, nil
	case step.Kind == models.StepKindVideo:
		e.video.Start(step.ID)
		return ActivateVideoStarted, nil
	}

	if err := e.CompleteStep(ctx, step.ID); err != nil {
		return "", err
	}
	return ActivateCompleted, nil
}

// CompleteStep stores a progress row and then marks the step done. Calling it for a
// step that is done or already being stored is a no-op. A failed insert leaves the
// step incomplete with status failed.
func (e *QuestEngine) CompleteStep(ctx context.Context, stepID string) error {
	e.mu.Lock()
	idx := e.indexLocked(stepID)
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	if e.steps[idx].Completed || e.steps[idx].Status == models.MutationPending {
		e.mu.Unlock()
		return nil
	}
	e.steps[idx].Status = models.MutationPending
	e.mu.Unlock()

	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	err := e.store.InsertProgress(ctx, models.QuestProgress{
		ID:          uuid.NewString(),
		UserID:      e.identity.MemberID,
		QuestID:     e.questID,
		StepID:      stepID,
		CompletedAt: e.clock.Now().UTC(),
	})

	e.mu.Lock()
	if err != nil {
		e.steps[idx].Status = models.MutationFailed
		e.mu.Unlock()
		utils.ReportError("QUEST", err, map[string]interface{}{"member_id": e.identity.MemberID, "step_id": stepID})
		return fmt.Errorf("complete step %s: %w", stepID, err)
	}
	e.steps[idx].Completed = true
	e.steps[idx].Status = models.MutationConfirmed
	pct := e.progressLocked()
	e.mu.Unlock()

	log.Printf("✅ [QUEST] %s completed step %s (%d%%)", e.identity.MemberID, stepID, pct)
	if pct == 100 {
		log.Printf("🏆 [QUEST] %s finished the %s quest", e.identity.MemberID, e.questID)
	}
	return nil
}

// CloseVideo is the manual close of the video modal.
func (e *QuestEngine) CloseVideo() {
	e.video.Close()
}

func (e *QuestEngine) ProgressPercent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

func (e *QuestEngine) Snapshot() QuestSnapshot {
	e.mu.Lock()
	snap := QuestSnapshot{
		QuestID:         e.questID,
		Steps:           models.CloneSteps(e.steps),
		ProgressPercent: e.progressLocked(),
	}
	e.mu.Unlock()

	snap.Completed = snap.ProgressPercent == 100
	if snap.Completed {
		snap.Acknowledgment = models.QuestCompleteMessage
	}
	snap.Video = e.video.Snapshot()
	return snap
}

// Close stops any running video timer and abandons timer-driven completions.
func (e *QuestEngine) Close() {
	e.video.Close()
	e.cancel()
}

func (e *QuestEngine) finishVideo(stepID string) {
	// errors are already reported by CompleteStep
	_ = e.CompleteStep(e.ctx, stepID)
}

func (e *QuestEngine) indexLocked(stepID string) int {
	for i := range e.steps {
		if e.steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

func (e *QuestEngine) progressLocked() int {
	if len(e.steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range e.steps {
		if s.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(e.steps))))
}

func (e *QuestEngine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}
