package services

import (
	"strings"
	"sync"

	"community-hub/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RiskSource supplies churn radar data. Nothing here scores members.
type RiskSource interface {
	Snapshot() models.RiskSnapshot
}

// StaticRiskSource serves a fixed roster (the dashboard's mock data).
type StaticRiskSource struct {
	Data models.RiskSnapshot
}

func (s StaticRiskSource) Snapshot() models.RiskSnapshot {
	return s.Data
}

// DefaultRiskSnapshot is shown until a risk feed is configured.
var DefaultRiskSnapshot = models.RiskSnapshot{
	Members: []models.MemberRisk{
		{
			MemberID:      "1",
			Name:          "Alex Rivera",
			Email:         "alex@example.com",
			LastActive:    "8 days ago",
			RiskScore:     85,
			UsageTrend:    models.UsageTrendDown,
			Status:        models.MemberStatusAtRisk,
			AvatarURL:     "https://api.dicebear.com/7.x/avataaars/svg?seed=Alex",
			NextMilestone: "30 Day Anniversary (2 days)",
		},
		{
			MemberID:   "2",
			Name:       "Sarah Chen",
			Email:      "sarah@example.com",
			LastActive: "12 days ago",
			RiskScore:  92,
			UsageTrend: models.UsageTrendDown,
			Status:     models.MemberStatusAtRisk,
			AvatarURL:  "https://api.dicebear.com/7.x/avataaars/svg?seed=Sarah",
		},
		{
			MemberID:      "3",
			Name:          "Mike Johnson",
			Email:         "mike@example.com",
			LastActive:    "2 days ago",
			RiskScore:     15,
			UsageTrend:    models.UsageTrendUp,
			Status:        models.MemberStatusActive,
			AvatarURL:     "https://api.dicebear.com/7.x/avataaars/svg?seed=Mike",
			NextMilestone: "Birthday (Tomorrow)",
		},
	},
	RetentionRate:      94.2,
	UpcomingMilestones: 5,
}

// RiskCache holds the latest snapshot pulled by the risk feed worker and
// falls back to another source until the first successful poll.
type RiskCache struct {
	fallback RiskSource

	mu   sync.RWMutex
	data *models.RiskSnapshot
}

func NewRiskCache(fallback RiskSource) *RiskCache {
	return &RiskCache{fallback: fallback}
}

func (c *RiskCache) Store(snap models.RiskSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = &snap
}

func (c *RiskCache) Snapshot() models.RiskSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil {
		return c.fallback.Snapshot()
	}
	return *c.data
}

// ChurnService shapes risk data for the admin view.
type ChurnService struct {
	source RiskSource
}

func NewChurnService(source RiskSource) *ChurnService {
	return &ChurnService{source: source}
}

// Members returns radar rows whose name or email contains query (case-insensitive).
func (s *ChurnService) Members(query string) []models.MemberRisk {
	query = strings.ToLower(strings.TrimSpace(query))
	snap := s.source.Snapshot()

	// a Caser is stateful, so one per call
	title := cases.Title(language.English)
	rows := make([]models.MemberRisk, 0, len(snap.Members))
	for _, m := range snap.Members {
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Email), query) {
			continue
		}
		m.TrendLabel = title.String(string(m.UsageTrend))
		rows = append(rows, m)
	}
	return rows
}

// Member finds one radar row by member id.
func (s *ChurnService) Member(id string) (models.MemberRisk, bool) {
	for _, m := range s.Members("") {
		if m.MemberID == id {
			return m, true
		}
	}
	return models.MemberRisk{}, false
}

// Stats counts at-risk rows; retention and milestones are passed through as supplied.
func (s *ChurnService) Stats() models.ChurnStats {
	snap := s.source.Snapshot()
	atRisk := 0
	for _, m := range snap.Members {
		if m.Status == models.MemberStatusAtRisk {
			atRisk++
		}
	}
	return models.ChurnStats{
		AtRiskCount:        atRisk,
		RetentionRate:      snap.RetentionRate,
		UpcomingMilestones: snap.UpcomingMilestones,
	}
}
