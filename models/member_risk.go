package models

// UsageTrend is the direction of a member's recent activity
type UsageTrend string

const (
	UsageTrendUp     UsageTrend = "up"
	UsageTrendDown   UsageTrend = "down"
	UsageTrendStable UsageTrend = "stable"
)

// MemberStatus is the churn classification supplied by the risk source
type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "Active"
	MemberStatusAtRisk  MemberStatus = "At Risk"
	MemberStatusChurned MemberStatus = "Churned"
)

// MemberRisk is one row of the churn radar. Scores and statuses are supplied
// by an external risk-scoring source, never derived here.
type MemberRisk struct {
	MemberID      string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	LastActive    string       `json:"last_active"`                    // display label, e.g. "8 days ago"
	RiskScore     int          `json:"risk_score"`                     // 0-100, higher is worse
	UsageTrend    UsageTrend   `json:"usage_trend"`
	TrendLabel    string       `json:"usage_trend_label,omitempty"`
	Status        MemberStatus `json:"status"`
	AvatarURL     string       `json:"avatar_url"`
	NextMilestone string       `json:"next_milestone,omitempty"` // e.g. "30 Day Anniversary (2 days)"
}

// ChurnStats backs the admin header counters.
type ChurnStats struct {
	AtRiskCount        int     `json:"at_risk_count"`
	RetentionRate      float64 `json:"retention_rate"`
	UpcomingMilestones int     `json:"upcoming_milestones"`
}

// RiskSnapshot is what a risk source hands to the admin view.
type RiskSnapshot struct {
	Members            []MemberRisk `json:"members"`
	RetentionRate      float64      `json:"retention_rate"`
	UpcomingMilestones int          `json:"upcoming_milestones"`
}
