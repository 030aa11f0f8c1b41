package models

import (
	"time"
)

// Member is the community member row in the shared `users` table.
// Created on first visit by the identity provider, refreshed by the profile sync worker.
type Member struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"index" json:"email"`
	LastActive time.Time `gorm:"column:last_active;index" json:"last_active"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Member) TableName() string {
	return "users"
}

// RemoteProfile mirrors a profile returned by the external profile service (read-only).
// Used by the sync worker to refresh members.
type RemoteProfile struct {
	ExternalID string     `json:"external_id"` // ← links to Member.ID
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DisplayName prefers "First Last" and falls back to the username.
func (p RemoteProfile) DisplayName() string {
	first, last := "", ""
	if p.FirstName != nil {
		first = *p.FirstName
	}
	if p.LastName != nil {
		last = *p.LastName
	}
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return p.Username
}
