package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"community-hub/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoIdentity = Identity{MemberID: "demo-user-123", Name: "Demo User", Email: "demo@example.com"}

func TestIdentityProvider_Resolve(t *testing.T) {
	p := NewIdentityProvider(newMemStore(), clockwork.NewFakeClock(), demoIdentity)

	assert.Equal(t, demoIdentity, p.Resolve(""))
	assert.Equal(t, demoIdentity, p.Resolve("demo-user-123"))
	assert.Equal(t, Identity{MemberID: "m-9"}, p.Resolve("m-9"))
}

func TestIdentityProvider_EnsureCreatesMember(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	p := NewIdentityProvider(store, clockwork.NewFakeClockAt(now), demoIdentity)

	require.NoError(t, p.Ensure(context.Background(), demoIdentity))
	m, err := store.GetMember(context.Background(), "demo-user-123")
	require.NoError(t, err)
	assert.Equal(t, "Demo User", m.Name)
	assert.Equal(t, "demo@example.com", m.Email)
	assert.Equal(t, now, m.LastActive)

	// idempotent
	require.NoError(t, p.Ensure(context.Background(), demoIdentity))
	assert.Len(t, store.members, 1)
}

func TestIdentityProvider_EnsureKeepsSyncedName(t *testing.T) {
	store := newMemStore()
	store.members["m-9"] = models.Member{ID: "m-9", Name: "Jordan Lee", Email: "jordan@example.com"}
	p := NewIdentityProvider(store, clockwork.NewFakeClock(), demoIdentity)

	require.NoError(t, p.Ensure(context.Background(), Identity{MemberID: "m-9"}))
	assert.Equal(t, "Jordan Lee", store.members["m-9"].Name)
	assert.Equal(t, "jordan@example.com", store.members["m-9"].Email)

	require.NoError(t, p.Ensure(context.Background(), Identity{MemberID: "new-member"}))
	assert.Equal(t, "new-member", store.members["new-member"].Name)
}

func TestIdentityProvider_EnsureFailure(t *testing.T) {
	store := newMemStore()
	store.upsertErr = errors.New("db down")
	p := NewIdentityProvider(store, clockwork.NewFakeClock(), demoIdentity)

	assert.Error(t, p.Ensure(context.Background(), demoIdentity))
}
