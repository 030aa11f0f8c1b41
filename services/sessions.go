package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Session is one member's live quest and loot state, rebuilt from the store on first use.
type Session struct {
	Identity Identity
	Quest    *QuestEngine
	Loot     *LootFlow

	lastSeen time.Time
}

// SessionRegistry keeps a session per member id. Sessions are independent; nothing is shared
// between members except the store.
type SessionRegistry struct {
	store        Store
	identities   *IdentityProvider
	clock        clockwork.Clock
	storeTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionRegistry(store Store, identities *IdentityProvider, clock clockwork.Clock, storeTimeout time.Duration) *SessionRegistry {
	return &SessionRegistry{
		store:        store,
		identities:   identities,
		clock:        clock,
		storeTimeout: storeTimeout,
		sessions:     make(map[string]*Session),
	}
}

// Get returns the member's session, creating and loading it on first use.
// Creation ensures the member row before any progress or claim read.
func (r *SessionRegistry) Get(ctx context.Context, memberID string) *Session {
	id := r.identities.Resolve(memberID)

	r.mu.Lock()
	if s, ok := r.sessions[id.MemberID]; ok {
		s.lastSeen = r.clock.Now()
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	ensureCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.storeTimeout > 0 {
		ensureCtx, cancel = context.WithTimeout(ctx, r.storeTimeout)
	}
	_ = r.identities.Ensure(ensureCtx, id) // logged inside; the session still works read-only
	cancel()

	s := &Session{
		Identity: id,
		Quest:    NewQuestEngine(id, r.store, r.clock, WithQuestStoreTimeout(r.storeTimeout)),
		Loot:     NewLootFlow(id, r.store, r.clock, WithLootStoreTimeout(r.storeTimeout)),
		lastSeen: r.clock.Now(),
	}
	s.Quest.LoadProgress(ctx)
	s.Loot.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id.MemberID]; ok {
		// lost a creation race; keep the first one
		s.Quest.Close()
		existing.lastSeen = r.clock.Now()
		return existing
	}
	r.sessions[id.MemberID] = s
	log.Printf("🆕 [SESSION] opened for %s", id.MemberID)
	return s
}

// Len is the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than ttl and returns how many were evicted.
func (r *SessionRegistry) Sweep(ttl time.Duration) int {
	cutoff := r.clock.Now().Add(-ttl)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Quest.Close()
	}
	if len(stale) > 0 {
		log.Printf("🧹 [SESSION] swept %d idle session(s)", len(stale))
	}
	return len(stale)
}

// CloseAll tears down every session (shutdown).
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Quest.Close()
	}
}
