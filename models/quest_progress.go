package models

import (
	"time"
)

// QuestProgress is one append-only completion record.
// Completion is derived from the existence of a row for (user, quest, step); duplicates are harmless.
type QuestProgress struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"index:idx_quest_progress_user_quest;not null" json:"user_id"`
	QuestID     string    `gorm:"index:idx_quest_progress_user_quest;not null" json:"quest_id"`
	StepID      string    `gorm:"not null" json:"step_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

func (QuestProgress) TableName() string {
	return "quest_progress"
}
