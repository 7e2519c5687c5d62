package auth

import (
	"sync"
	"time"
)

// TokenRevocationStore tracks revoked token ids (logout) and per-user
// cutoffs (deactivation) in memory. Entries are dropped once the token would
// have expired anyway.
type TokenRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // JTI -> natural expiry
	cutoffs map[int64]cutoff     // user -> tokens issued before are revoked
	maxTTL  time.Duration
	now     func() time.Time
	done    chan struct{}
}

type cutoff struct {
	at        time.Time
	expiresAt time.Time
}

// NewTokenRevocationStore starts a background goroutine that removes expired
// entries every interval. maxTTL bounds how long a user cutoff is kept.
func NewTokenRevocationStore(maxTTL, interval time.Duration) *TokenRevocationStore {
	s := &TokenRevocationStore{
		entries: make(map[string]time.Time),
		cutoffs: make(map[int64]cutoff),
		maxTTL:  maxTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.cleanupLoop(interval)
	return s
}

// Revoke marks a single token as revoked until expiresAt.
func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
}

// RevokeAllForUser revokes every token issued to userID up to now.
func (s *TokenRevocationStore) RevokeAllForUser(userID int64) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs[userID] = cutoff{at: now, expiresAt: now.Add(s.maxTTL)}
}

// IsRevoked reports whether the token identified by jti, issued to userID at
// issuedAt, may no longer be used.
func (s *TokenRevocationStore) IsRevoked(jti string, userID int64, issuedAt time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entries[jti]; ok {
		return true
	}
	if c, ok := s.cutoffs[userID]; ok && !issuedAt.After(c.at) {
		return true
	}
	return false
}

// Count returns the number of individually revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *TokenRevocationStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *TokenRevocationStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *TokenRevocationStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, jti)
		}
	}
	for uid, c := range s.cutoffs {
		if now.After(c.expiresAt) {
			delete(s.cutoffs, uid)
		}
	}
}
