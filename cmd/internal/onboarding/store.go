// Package onboarding captures the preferences a learner submits before signup.
package onboarding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrInvalidInput is returned when a required preference is blank.
var ErrInvalidInput = errors.New("invalid input")

// Preferences is one onboarding questionnaire submission.
type Preferences struct {
	Experience  string
	Goal        string
	Cadence     string
	SubmittedAt time.Time
}

// MemoryStore is an append-only in-process log of submissions.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Preferences
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append validates and records p. A zero SubmittedAt is set to now.
func (s *MemoryStore) Append(ctx context.Context, p Preferences) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}

	p.Experience = strings.TrimSpace(p.Experience)
	p.Goal = strings.TrimSpace(p.Goal)
	p.Cadence = strings.TrimSpace(p.Cadence)
	if p.Experience == "" || p.Goal == "" || p.Cadence == "" {
		return Preferences{}, ErrInvalidInput
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.entries = append(s.entries, p)
	s.mu.Unlock()

	return p, nil
}

// List returns a copy of all submissions in arrival order.
func (s *MemoryStore) List() []Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Preferences, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of submissions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
