package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"community-hub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMemberNotFound is returned when a member id has no `users` row.
var ErrMemberNotFound = errors.New("member not found")

// GormStore implements Store on top of GORM (Postgres in production, SQLite in tests).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ Store = (*GormStore)(nil)

// UpsertMember inserts or refreshes a member by id (idempotent).
func (s *GormStore) UpsertMember(ctx context.Context, m models.Member) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "last_active", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", m.ID, err)
	}
	return nil
}

func (s *GormStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", id, err)
	}
	return &m, nil
}

// InsertProgress appends a completion row; duplicates are tolerated.
func (s *GormStore) InsertProgress(ctx context.Context, rec models.QuestProgress) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert quest progress %s/%s: %w", rec.QuestID, rec.StepID, err)
	}
	return nil
}

// CompletedStepIDs returns the distinct step ids recorded for a member's quest.
func (s *GormStore) CompletedStepIDs(ctx context.Context, userID, questID string) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).
		Model(&models.QuestProgress{}).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		Distinct().
		Pluck("step_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("select quest progress for %s: %w", userID, err)
	}
	return ids, nil
}

func (s *GormStore) InsertClaim(ctx context.Context, claim models.DailyLoot) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if err := s.DB.WithContext(ctx).Create(&claim).Error; err != nil {
		return fmt.Errorf("insert daily loot for %s: %w", claim.UserID, err)
	}
	return nil
}

func (s *GormStore) ClaimsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.DailyLoot, error) {
	var claims []models.DailyLoot
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND claimed_at >= ? AND claimed_at < ?", userID, from.UTC(), to.UTC()).
		Order("claimed_at ASC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("select daily loot for %s: %w", userID, err)
	}
	return claims, nil
}
