package services

import (
	"context"
	"time"

	"community-hub/models"
)

// MemberStore owns the `users` table.
type MemberStore interface {
	UpsertMember(ctx context.Context, m models.Member) error
	GetMember(ctx context.Context, id string) (*models.Member, error)
}

// ProgressStore owns the append-only `quest_progress` table.
type ProgressStore interface {
	InsertProgress(ctx context.Context, rec models.QuestProgress) error
	CompletedStepIDs(ctx context.Context, userID, questID string) ([]string, error)
}

// LootStore owns the `daily_loot` table.
type LootStore interface {
	InsertClaim(ctx context.Context, claim models.DailyLoot) error
	// ClaimsBetween returns claims with from <= claimed_at < to.
	ClaimsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.DailyLoot, error)
}

// Store is everything a member session needs from the backend.
type Store interface {
	MemberStore
	ProgressStore
	LootStore
}
