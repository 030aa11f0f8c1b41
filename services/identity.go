package services

import (
	"context"
	"log"

	"community-hub/models"
	"community-hub/utils"

	"github.com/jonboulle/clockwork"
)

// Identity is the member a session acts for. It is fixed for the session's lifetime.
type Identity struct {
	MemberID string
	Name     string
	Email    string
}

// IdentityProvider resolves request identities and makes sure their `users` row exists
// before progress or claim rows reference it.
type IdentityProvider struct {
	store MemberStore
	clock clockwork.Clock
	demo  Identity
}

func NewIdentityProvider(store MemberStore, clock clockwork.Clock, demo Identity) *IdentityProvider {
	return &IdentityProvider{store: store, clock: clock, demo: demo}
}

// Resolve returns the identity for a gateway-supplied member id, or the demo member when empty.
func (p *IdentityProvider) Resolve(memberID string) Identity {
	if memberID == "" || memberID == p.demo.MemberID {
		return p.demo
	}
	return Identity{MemberID: memberID}
}

// Ensure upserts the member row (idempotent). Failures are logged and returned but
// callers keep going with the session.
func (p *IdentityProvider) Ensure(ctx context.Context, id Identity) error {
	m := models.Member{
		ID:         id.MemberID,
		Name:       id.Name,
		Email:      id.Email,
		LastActive: p.clock.Now().UTC(),
	}
	if m.Name == "" {
		// Keep whatever name the profile sync wrote; only fall back to the id for new rows.
		if existing, err := p.store.GetMember(ctx, id.MemberID); err == nil {
			m.Name = existing.Name
			m.Email = existing.Email
		} else {
			m.Name = id.MemberID
		}
	}
	if err := p.store.UpsertMember(ctx, m); err != nil {
		utils.ReportError("IDENTITY", err, map[string]interface{}{"member_id": id.MemberID})
		return err
	}
	log.Printf("👤 [IDENTITY] member %s ensured", id.MemberID)
	return nil
}
