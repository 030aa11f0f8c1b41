package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"

	"community-hub/models"
	"community-hub/utils"

	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
)

var ErrReportsDisabled = errors.New("report storage is not configured")

// Uploader stores an object and returns its public URL (utils.R2Uploader in production).
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// ReportService exports the churn radar as CSV to object storage.
type ReportService struct {
	churn    *ChurnService
	uploader Uploader
	clock    clockwork.Clock
}

// NewReportService accepts a nil uploader; Export then returns ErrReportsDisabled.
func NewReportService(churn *ChurnService, uploader Uploader, clock clockwork.Clock) *ReportService {
	return &ReportService{churn: churn, uploader: uploader, clock: clock}
}

type ChurnReport struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

func (s *ReportService) ExportChurn(ctx context.Context) (*ChurnReport, error) {
	if s.uploader == nil {
		return nil, ErrReportsDisabled
	}

	rows := s.churn.Members("")
	body, err := churnCSV(rows)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	key := "reports/" + slug.Make("churn radar "+now.Format("2006-01-02 150405")) + ".csv"
	url, err := s.uploader.Upload(ctx, key, "text/csv", body)
	if err != nil {
		utils.ReportError("REPORT", err, map[string]interface{}{"key": key, "rows": len(rows)})
		return nil, fmt.Errorf("upload churn report: %w", err)
	}
	log.Printf("📤 [REPORT] churn radar exported (%d rows) → %s", len(rows), url)
	return &ChurnReport{Key: key, URL: url, Rows: len(rows)}, nil
}

func churnCSV(rows []models.MemberRisk) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"member_id", "name", "email", "status", "risk_score", "usage_trend", "last_active", "next_milestone"}); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	for _, m := range rows {
		if err := w.Write([]string{
			m.MemberID, m.Name, m.Email, string(m.Status), strconv.Itoa(m.RiskScore),
			string(m.UsageTrend), m.LastActive, m.NextMilestone,
		}); err != nil {
			return nil, fmt.Errorf("write report row %s: %w", m.MemberID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}
	return buf.Bytes(), nil
}
