// workers/risk_feed_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"community-hub/models"
	"community-hub/services"
	"community-hub/utils"
)

// RiskFeedClient pulls churn radar rows from the external risk-scoring service
// and swaps them into the admin view's cache.
type RiskFeedClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Cache      *services.RiskCache
}

func NewRiskFeedClient(baseURL, token string, cache *services.RiskCache) *RiskFeedClient {
	return &RiskFeedClient{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
		Cache:      cache,
	}
}

func (c *RiskFeedClient) Job(every time.Duration) services.ScheduledJob {
	return services.ScheduledJob{
		Name:  "risk-feed",
		Every: every,
		Run: func(ctx context.Context) {
			if err := c.PollOnce(ctx); err != nil {
				utils.ReportError("RISK", err, nil)
			}
		},
	}
}

// PollOnce fetches the current snapshot. Rows with an unknown status or trend,
// or a score outside 0-100, are dropped. The cache is left untouched on error.
func (c *RiskFeedClient) PollOnce(ctx context.Context) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse risk feed URL: %w", err)
	}
	u = u.JoinPath("/api/v1/risk/members")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("X-Service-Token", c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call risk feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("risk feed returned status %d: %s", resp.StatusCode, string(body))
	}

	var snap models.RiskSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode risk feed: %w", err)
	}

	kept := snap.Members[:0]
	for _, m := range snap.Members {
		if validRiskRow(m) {
			kept = append(kept, m)
		} else {
			log.Printf("[RISK] ⚠️ dropping malformed row for member %q", m.MemberID)
		}
	}
	snap.Members = kept

	c.Cache.Store(snap)
	log.Printf("[RISK] ✅ %d member risk row(s) cached", len(snap.Members))
	return nil
}

func validRiskRow(m models.MemberRisk) bool {
	if m.MemberID == "" || m.RiskScore < 0 || m.RiskScore > 100 {
		return false
	}
	switch m.Status {
	case models.MemberStatusActive, models.MemberStatusAtRisk, models.MemberStatusChurned:
	default:
		return false
	}
	switch m.UsageTrend {
	case models.UsageTrendUp, models.UsageTrendDown, models.UsageTrendStable:
		return true
	}
	return false
}
