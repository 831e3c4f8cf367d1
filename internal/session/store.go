package session

import (
	"fmt"
	"sync"
	"time"
)

// Session mirrors per-identity display state for one client session. The
// credit fields are a cache of the authoritative server balance and are never
// consulted for gating decisions.
type Session struct {
	Credits           int
	Unlimited         bool
	SelectedPersonaID string
	UpdatedAt         time.Time
}

// GuestState is the pre-sign-in selection a guest made; it is handed to the
// signed-in session through Restore if still fresh.
type GuestState struct {
	SelectedPersonaID string
	SelfieURL         string
	SavedAt           time.Time
}

// Store keeps session mirrors and staged guest state in memory. Each entry is
// owned by exactly one client session; nothing here is a source of truth.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	guests     map[string]GuestState
	restoreTTL time.Duration
	now        func() time.Time
}

// DefaultRestoreTTL is the freshness window for guest-to-user handoff.
const DefaultRestoreTTL = 10 * time.Minute

func NewStore(restoreTTL time.Duration) *Store {
	if restoreTTL <= 0 {
		restoreTTL = DefaultRestoreTTL
	}
	return &Store{
		sessions:   make(map[string]*Session),
		guests:     make(map[string]GuestState),
		restoreTTL: restoreTTL,
		now:        time.Now,
	}
}

// UserKey derives the session key for a signed-in identity.
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Get returns a copy of the session for key, or a zero session if none
// exists yet.
func (s *Store) Get(key string) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[key]; ok {
		return *sess
	}
	return Session{}
}

// SetBalance overwrites the cached credit mirror with a freshly fetched
// authoritative balance.
func (s *Store) SetBalance(key string, credits int, unlimited bool) {
	if credits < 0 {
		credits = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(key)
	sess.Credits = credits
	sess.Unlimited = unlimited
	sess.UpdatedAt = s.now()
}

// ApplyDebit optimistically decrements the cached credits for immediate UI
// feedback, clamped at zero. The authoritative decrement happens server-side;
// a later SetBalance reconverges the mirror.
func (s *Store) ApplyDebit(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(key)
	if sess.Credits > 0 {
		sess.Credits--
	}
	sess.UpdatedAt = s.now()
}

// SelectPersona records the persona the session currently has picked.
func (s *Store) SelectPersona(key, personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(key)
	sess.SelectedPersonaID = personaID
	sess.UpdatedAt = s.now()
}

// StageGuest saves a guest's selection for handoff after sign-in.
func (s *Store) StageGuest(guestKey string, state GuestState) {
	if state.SavedAt.IsZero() {
		state.SavedAt = s.now()
	}
	s.mu.Lock()
	s.guests[guestKey] = state
	s.mu.Unlock()
}

// Restore moves staged guest state onto the signed-in session if it is still
// within the freshness window. The guest entry is removed either way; stale
// state is dropped, not applied. Returns the restored state and whether the
// handoff happened.
func (s *Store) Restore(guestKey, userKey string) (GuestState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.guests[guestKey]
	if !ok {
		return GuestState{}, false
	}
	delete(s.guests, guestKey)
	if s.now().Sub(state.SavedAt) > s.restoreTTL {
		return GuestState{}, false
	}
	sess := s.ensure(userKey)
	sess.SelectedPersonaID = state.SelectedPersonaID
	sess.UpdatedAt = s.now()
	return state, true
}

// Clear removes every trace of a session, including any staged guest state
// under the same key. Called on sign-out.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	delete(s.guests, key)
	s.mu.Unlock()
}

func (s *Store) ensure(key string) *Session {
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{}
		s.sessions[key] = sess
	}
	return sess
}
