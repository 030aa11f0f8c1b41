package services

import (
	"testing"

	"community-hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChurnService_Members(t *testing.T) {
	svc := NewChurnService(StaticRiskSource{Data: DefaultRiskSnapshot})

	all := svc.Members("")
	require.Len(t, all, 3)
	assert.Equal(t, "Down", all[0].TrendLabel)
	assert.Equal(t, "Up", all[2].TrendLabel)

	byName := svc.Members("  SARAH ")
	require.Len(t, byName, 1)
	assert.Equal(t, "2", byName[0].MemberID)

	byEmail := svc.Members("mike@")
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Mike Johnson", byEmail[0].Name)

	assert.Empty(t, svc.Members("nobody"))
}

func TestChurnService_MembersDoesNotMutateSource(t *testing.T) {
	src := StaticRiskSource{Data: DefaultRiskSnapshot}
	NewChurnService(src).Members("")
	assert.Empty(t, src.Data.Members[0].TrendLabel)
}

func TestChurnService_Member(t *testing.T) {
	svc := NewChurnService(StaticRiskSource{Data: DefaultRiskSnapshot})

	m, ok := svc.Member("1")
	require.True(t, ok)
	assert.Equal(t, "Alex Rivera", m.Name)
	assert.Equal(t, 85, m.RiskScore)

	_, ok = svc.Member("404")
	assert.False(t, ok)
}

func TestChurnService_Stats(t *testing.T) {
	svc := NewChurnService(StaticRiskSource{Data: DefaultRiskSnapshot})

	assert.Equal(t, models.ChurnStats{
		AtRiskCount:        2,
		RetentionRate:      94.2,
		UpcomingMilestones: 5,
	}, svc.Stats())
}

func TestRiskCache_FallsBackUntilStored(t *testing.T) {
	cache := NewRiskCache(StaticRiskSource{Data: DefaultRiskSnapshot})
	svc := NewChurnService(cache)
	assert.Len(t, svc.Members(""), 3)

	cache.Store(models.RiskSnapshot{
		Members: []models.MemberRisk{{
			MemberID: "9", Name: "Pat Kim", RiskScore: 70,
			UsageTrend: models.UsageTrendStable, Status: models.MemberStatusAtRisk,
		}},
		RetentionRate:      88.5,
		UpcomingMilestones: 1,
	})

	rows := svc.Members("")
	require.Len(t, rows, 1)
	assert.Equal(t, "Stable", rows[0].TrendLabel)
	assert.Equal(t, 1, svc.Stats().AtRiskCount)
	assert.Equal(t, 88.5, svc.Stats().RetentionRate)
}
