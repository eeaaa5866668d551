package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quest/cmd/identity"
	"quest/cmd/identity/ids"
	"quest/cmd/security/token"
)

// MemoryStore keeps sessions in process memory, keyed by token digest.
type MemoryStore struct {
	hasher     token.Hasher
	tokenBytes int
	ttl        time.Duration
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session // token digest -> session
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(cfg Config, hasher token.Hasher) *MemoryStore {
	if cfg.TokenBytes < token.MinBytes {
		cfg.TokenBytes = token.MinBytes
	}
	return &MemoryStore{
		hasher:     hasher,
		tokenBytes: cfg.TokenBytes,
		ttl:        cfg.TTL,
		now:        func() time.Time { return time.Now().UTC() },
		sessions:   make(map[string]Session),
	}
}

// Open issues a token for email and records it.
func (s *MemoryStore) Open(ctx context.Context, email string) (Opened, error) {
	if err := ctx.Err(); err != nil {
		return Opened{}, err
	}

	email = identity.NormalizeEmail(email)
	if email == "" {
		return Opened{}, fmt.Errorf("session: empty email")
	}

	plain, err := token.Issue(s.tokenBytes)
	if err != nil {
		return Opened{}, fmt.Errorf("session: issue token: %w", err)
	}

	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return Opened{}, fmt.Errorf("session: id: %w", err)
	}

	key := s.hasher.Sum(plain)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.sessions[key]; dup {
		// 256 bits of entropy; a collision means the RNG is broken.
		return Opened{}, fmt.Errorf("session: token collision")
	}
	s.sessions[key] = Session{ID: id, Email: email, CreatedAt: now}

	return Opened{Token: plain, SessionID: id}, nil
}

// Resolve returns the session bound to plain.
func (s *MemoryStore) Resolve(ctx context.Context, plain string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if plain == "" {
		return Session{}, ErrSessionNotFound
	}

	key := s.hasher.Sum(plain)

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok || s.expired(sess, s.now()) {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Sweep drops sessions older than the TTL and returns how many were removed.
// It is a no-op when no TTL is configured.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, k)
			n++
		}
	}
	return n
}

// Len returns the number of recorded sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && !sess.CreatedAt.Add(s.ttl).After(now)
}
