package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"community-hub/models"
	"community-hub/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrAlreadyClaimed  = errors.New("daily loot already claimed today")
	ErrClaimInProgress = errors.New("daily loot claim already in progress")
)

type LootSnapshot struct {
	Claimed     bool                  `json:"claimed"`
	Status      models.MutationStatus `json:"status,omitempty"`
	Reward      models.Reward         `json:"reward"`
	ClaimedAt   *time.Time            `json:"claimed_at,omitempty"`
	NextClaimAt time.Time             `json:"next_claim_at"`
}

// DayWindow returns [UTC midnight of now's day, next UTC midnight).
func DayWindow(now time.Time) (time.Time, time.Time) {
	from := now.UTC().Truncate(24 * time.Hour)
	return from, from.Add(24 * time.Hour)
}

// LootFlow gates one reward claim per member per UTC day.
// The day check is a query before insert, so two sessions racing can both claim.
type LootFlow struct {
	identity Identity
	store    LootStore
	clock    clockwork.Clock
	timeout  time.Duration
	reward   models.Reward

	mu        sync.Mutex
	claimedAt *time.Time
	status    models.MutationStatus
}

type LootOption func(*LootFlow)

func WithLootStoreTimeout(d time.Duration) LootOption {
	return func(f *LootFlow) { f.timeout = d }
}

func WithLootReward(r models.Reward) LootOption {
	return func(f *LootFlow) { f.reward = r }
}

func NewLootFlow(identity Identity, store LootStore, clock clockwork.Clock, opts ...LootOption) *LootFlow {
	f := &LootFlow{
		identity: identity,
		store:    store,
		clock:    clock,
		reward:   models.DailyLootReward,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load looks for a claim in today's window. A failed lookup counts as "not claimed".
func (f *LootFlow) Load(ctx context.Context) bool {
	claim, err := f.todaysClaim(ctx)
	if err != nil {
		utils.ReportError("LOOT", err, map[string]interface{}{"member_id": f.identity.MemberID, "op": "load"})
		return false
	}
	if claim == nil {
		return f.Claimed()
	}

	f.mu.Lock()
	at := claim.ClaimedAt.UTC()
	f.claimedAt = &at
	f.status = models.MutationConfirmed
	f.mu.Unlock()
	return true
}

// Claim inserts today's reward. It refuses when today's reward is already known,
// when a claim is in flight, or when the store already holds a claim for today.
func (f *LootFlow) Claim(ctx context.Context) (*models.DailyLoot, error) {
	f.mu.Lock()
	if f.claimedLocked() {
		f.mu.Unlock()
		return nil, ErrAlreadyClaimed
	}
	if f.status == models.MutationPending {
		f.mu.Unlock()
		return nil, ErrClaimInProgress
	}
	f.status = models.MutationPending
	f.mu.Unlock()

	existing, err := f.todaysClaim(ctx)
	if err != nil {
		// same fail-open policy as Load
		utils.ReportError("LOOT", err, map[string]interface{}{"member_id": f.identity.MemberID, "op": "recheck"})
	}
	if existing != nil {
		f.mu.Lock()
		at := existing.ClaimedAt.UTC()
		f.claimedAt = &at
		f.status = models.MutationConfirmed
		f.mu.Unlock()
		return nil, ErrAlreadyClaimed
	}

	claim := models.DailyLoot{
		ID:          uuid.NewString(),
		UserID:      f.identity.MemberID,
		ClaimedAt:   f.clock.Now().UTC(),
		RewardType:  f.reward.Type,
		RewardValue: f.reward.Value,
	}
	insertCtx, cancel := f.storeContext(ctx)
	defer cancel()
	if err := f.store.InsertClaim(insertCtx, claim); err != nil {
		f.mu.Lock()
		f.status = models.MutationFailed
		f.mu.Unlock()
		utils.ReportError("LOOT", err, map[string]interface{}{"member_id": f.identity.MemberID, "op": "claim"})
		return nil, fmt.Errorf("claim daily loot: %w", err)
	}

	f.mu.Lock()
	at := claim.ClaimedAt
	f.claimedAt = &at
	f.status = models.MutationConfirmed
	f.mu.Unlock()

	log.Printf("💎 [LOOT] %s claimed +%d %s", f.identity.MemberID, claim.RewardValue, claim.RewardType)
	return &claim, nil
}

// Claimed reports whether today's reward has been claimed. A claim from an earlier day does not count.
func (f *LootFlow) Claimed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimedLocked()
}

// NextClaimAt is the next UTC midnight.
func (f *LootFlow) NextClaimAt() time.Time {
	_, next := DayWindow(f.clock.Now())
	return next
}

func (f *LootFlow) Snapshot() LootSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := LootSnapshot{
		Claimed:     f.claimedLocked(),
		Status:      f.status,
		Reward:      f.reward,
		NextClaimAt: f.NextClaimAt(),
	}
	if snap.Claimed {
		at := *f.claimedAt
		snap.ClaimedAt = &at
	} else if f.status == models.MutationConfirmed {
		snap.Status = models.MutationNone // yesterday's claim
	}
	return snap
}

func (f *LootFlow) claimedLocked() bool {
	if f.claimedAt == nil {
		return false
	}
	from, _ := DayWindow(f.clock.Now())
	return !f.claimedAt.Before(from)
}

func (f *LootFlow) todaysClaim(ctx context.Context) (*models.DailyLoot, error) {
	ctx, cancel := f.storeContext(ctx)
	defer cancel()

	from, to := DayWindow(f.clock.Now())
	claims, err := f.store.ClaimsBetween(ctx, f.identity.MemberID, from, to)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, nil
	}
	return &claims[0], nil
}

func (f *LootFlow) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(ctx, f.timeout)
	}
	return context.WithCancel(ctx)
}
