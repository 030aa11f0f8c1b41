package services

import (
	"context"
	"sync"
	"time"

	"community-hub/models"
)

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu       sync.Mutex
	members  map[string]models.Member
	progress []models.QuestProgress
	claims   []models.DailyLoot

	upsertErr    error
	getErr       error
	insertErr    error
	completedErr error
	claimErr     error
	betweenErr   error

	// beforeClaim runs (unlocked) at the start of InsertClaim.
	beforeClaim func()
	// beforeInsert runs (unlocked) at the start of InsertProgress.
	beforeInsert func()
}

func newMemStore() *memStore {
	return &memStore{members: make(map[string]models.Member)}
}

var _ Store = (*memStore)(nil)

func (s *memStore) UpsertMember(ctx context.Context, m models.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.members[m.ID] = m
	return nil
}

func (s *memStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	m, ok := s.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &m, nil
}

func (s *memStore) InsertProgress(ctx context.Context, rec models.QuestProgress) error {
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.progress = append(s.progress, rec)
	return nil
}

func (s *memStore) CompletedStepIDs(ctx context.Context, userID, questID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completedErr != nil {
		return nil, s.completedErr
	}
	seen := make(map[string]bool)
	var ids []string
	for _, p := range s.progress {
		if p.UserID == userID && p.QuestID == questID && !seen[p.StepID] {
			seen[p.StepID] = true
			ids = append(ids, p.StepID)
		}
	}
	return ids, nil
}

func (s *memStore) InsertClaim(ctx context.Context, claim models.DailyLoot) error {
	if s.beforeClaim != nil {
		s.beforeClaim()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return s.claimErr
	}
	s.claims = append(s.claims, claim)
	return nil
}

func (s *memStore) ClaimsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.DailyLoot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.betweenErr != nil {
		return nil, s.betweenErr
	}
	var out []models.DailyLoot
	for _, c := range s.claims {
		if c.UserID == userID && !c.ClaimedAt.Before(from) && c.ClaimedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) seedProgress(userID string, stepIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range stepIDs {
		s.progress = append(s.progress, models.QuestProgress{
			ID: "seed-" + id, UserID: userID, QuestID: models.OnboardingQuestID, StepID: id,
		})
	}
}

func (s *memStore) progressCount(userID, stepID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.progress {
		if p.UserID == userID && p.StepID == stepID {
			n++
		}
	}
	return n
}

func (s *memStore) claimCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.claims {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) setErr(target *error, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*target = err
}
