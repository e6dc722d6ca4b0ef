package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/imramesh222/chat-application/domain/user"
)

// ErrSessionNotFound is returned when no live session exists for a token.
var ErrSessionNotFound = errors.New("session not found")

// Session binds a token to an identity, role, and expiry. Sessions are
// owned exclusively by the SessionStore.
type Session struct {
	Token       string
	Subject     string
	Email       string
	DisplayName string
	Role        user.Role
	ExpiresAt   time.Time
}

// TokenIssuer produces a fresh signed token for a subject.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// SessionStore maps active tokens to sessions and owns their expiry and
// revocation. Lookups evict expired entries lazily; a background sweep
// (Sweep) bounds memory under idle-token accumulation.
type SessionStore struct {
	issuer   TokenIssuer
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a SessionStore issuing tokens via issuer.
func NewSessionStore(issuer TokenIssuer) *SessionStore {
	return &SessionStore{
		issuer:   issuer,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create issues a fresh token for the subject and stores the session
// keyed by token. There is at most one session per token.
func (s *SessionStore) Create(subject, email, displayName string, role user.Role, ttl time.Duration) (*Session, error) {
	token, err := s.issuer.Issue(subject, ttl)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Token:       token,
		Subject:     subject,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		ExpiresAt:   s.now().Add(ttl),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// Lookup returns the session for the token if it is present and not
// expired. An expired entry is evicted on read.
func (s *SessionStore) Lookup(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	if !s.now().Before(session.ExpiresAt) {
		// Re-check under the write lock; a concurrent Lookup may have
		// evicted it already.
		s.mu.Lock()
		if current, ok := s.sessions[token]; ok && current == session {
			delete(s.sessions, token)
		}
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Revoke removes the session unconditionally.
func (s *SessionStore) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

// Sweep evicts every expired session and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired entries included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
