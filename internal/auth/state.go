package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStateTTL bounds how long a sign-in redirect may take before the
// callback is rejected.
const DefaultStateTTL = 10 * time.Minute

// StateStore issues and verifies single-use CSRF state tokens for the
// redirect flow. States expire after the configured TTL.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewStateStore creates a state store with the given TTL.
// A non-positive TTL falls back to DefaultStateTTL.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a new state token and records its expiry.
func (s *StateStore) Issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()

	state := uuid.NewString()
	s.states[state] = s.now().Add(s.ttl)
	return state
}

// Consume verifies and invalidates a state token. A token is valid exactly
// once and only before its expiry.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return s.now().Before(expiry)
}

// Len returns the number of outstanding states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *StateStore) purgeLocked() {
	now := s.now()
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}
