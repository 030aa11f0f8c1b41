// workers/member_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"community-hub/models"
	"community-hub/services"
	"community-hub/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetProfileChangesResponse is the top-level structure of the profile service response.
type GetProfileChangesResponse struct {
	Users []models.RemoteProfile `json:"users"`
}

// MemberSyncWorker mirrors member profiles (name, email, last seen) from the
// external profile service into the `users` table.
type MemberSyncWorker struct {
	db           *gorm.DB
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client

	mu       sync.Mutex
	lastSync time.Time // newest remote updated_at seen so far
}

func NewMemberSyncWorker(db *gorm.DB, baseURL, serviceToken string) *MemberSyncWorker {
	return &MemberSyncWorker{
		db:           db,
		baseURL:      baseURL,
		endpointPath: "/api/v1/public/profiles",
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

// Job wraps SyncOnce for the scheduler.
func (w *MemberSyncWorker) Job(every time.Duration) services.ScheduledJob {
	return services.ScheduledJob{
		Name:  "member-sync",
		Every: every,
		Run: func(ctx context.Context) {
			if _, err := w.SyncOnce(ctx); err != nil {
				utils.ReportError("SYNC", err, nil)
			}
		},
	}
}

// SyncOnce fetches profiles changed since the last run and upserts them.
// It returns the number of members upserted.
func (w *MemberSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	since := w.lastSync
	w.mu.Unlock()

	profiles, err := w.fetch(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(profiles) == 0 {
		log.Printf("[SYNC] ✅ No profile changes since %s", since.UTC().Format(time.RFC3339))
		return 0, nil
	}

	var upserted, failed int
	latest := since
	for _, p := range profiles {
		if p.ExternalID == "" {
			failed++
			continue
		}
		if err := w.upsert(ctx, p); err != nil {
			failed++
			log.Printf("[SYNC] ⚠️ Failed to upsert member (external_id=%q): %v", p.ExternalID, err)
			continue
		}
		upserted++
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}

	w.mu.Lock()
	if latest.After(w.lastSync) {
		w.lastSync = latest
	}
	w.mu.Unlock()

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors)", len(profiles), upserted, failed)
	return upserted, nil
}

func (w *MemberSyncWorker) fetch(ctx context.Context, since time.Time) ([]models.RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", endpointURL, err)
	}
	if w.serviceToken != "" {
		req.Header.Set("X-Service-Token", w.serviceToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("profile service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var out GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode profile service response: %w", err)
	}
	return out.Users, nil
}

func (w *MemberSyncWorker) upsert(ctx context.Context, p models.RemoteProfile) error {
	m := models.Member{
		ID:    p.ExternalID,
		Name:  p.DisplayName(),
		Email: p.Email,
	}
	columns := []string{"name", "email", "updated_at"}
	if p.LastSeenAt != nil {
		m.LastActive = p.LastSeenAt.UTC()
		columns = append(columns, "last_active")
	} else {
		m.LastActive = p.UpdatedAt.UTC()
	}

	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&m).Error
}
