package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"community-hub/models"
	"community-hub/utils"
)

var ErrMemberNotAtRisk = errors.New("member is not at risk")

// ReengagementService mails at-risk members from the churn radar.
type ReengagementService struct {
	churn  *ChurnService
	mailer Mailer
}

func NewReengagementService(churn *ChurnService, mailer Mailer) *ReengagementService {
	return &ReengagementService{churn: churn, mailer: mailer}
}

// Send emails one at-risk member. note, when set, is appended to the body.
func (s *ReengagementService) Send(ctx context.Context, memberID, subject, note string) (models.MemberRisk, error) {
	m, ok := s.churn.Member(memberID)
	if !ok {
		return models.MemberRisk{}, ErrMemberNotFound
	}
	if m.Status != models.MemberStatusAtRisk {
		return m, ErrMemberNotAtRisk
	}

	if subject == "" {
		subject = "We miss you at The Hub"
	}
	text := fmt.Sprintf("Hi %s,\n\nIt has been a while since we saw you. Your community is still here and today's loot drop is waiting.", m.Name)
	if m.NextMilestone != "" {
		text += fmt.Sprintf("\n\nComing up for you: %s.", m.NextMilestone)
	}
	if note != "" {
		text += "\n\n" + note
	}

	if err := s.mailer.Send(ctx, MailMessage{
		ToName:  m.Name,
		ToEmail: m.Email,
		Subject: subject,
		Text:    text,
	}); err != nil {
		utils.ReportError("REENGAGE", err, map[string]interface{}{"member_id": memberID})
		return m, fmt.Errorf("send re-engagement email: %w", err)
	}
	log.Printf("📨 [REENGAGE] mailed %s (risk %d)", m.MemberID, m.RiskScore)
	return m, nil
}
