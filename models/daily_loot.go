package models

import "time"

// RewardType indicates what a daily loot claim pays out
type RewardType string

const (
	RewardTypeCommunityPoints RewardType = "community_points"
)

// DailyLootReward is the fixed payout of one daily claim.
var DailyLootReward = Reward{Type: RewardTypeCommunityPoints, Value: 50}

type Reward struct {
	Type  RewardType `json:"reward_type"`
	Value int64      `json:"reward_value"`
}

// DailyLoot = member opened today's loot box.
// At most one per member per UTC day, checked by a day-window query before insert (no unique index).
type DailyLoot struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index:idx_daily_loot_user_claimed;not null" json:"user_id"`
	ClaimedAt   time.Time  `gorm:"index:idx_daily_loot_user_claimed;not null" json:"claimed_at"`
	RewardType  RewardType `gorm:"size:32;not null" json:"reward_type"`
	RewardValue int64      `gorm:"not null" json:"reward_value"`
}

func (DailyLoot) TableName() string {
	return "daily_loot"
}
