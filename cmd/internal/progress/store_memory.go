package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quest/cmd/identity/ids"
)

const (
	memMaxEntriesPerAccount = 10_000
)

// MemoryStore keeps progress entries in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*memLog
}

type memLog struct {
	seq     int64
	entries []Entry // ordered by seq
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*memLog),
	}
}

// Append records an entry and allocates its seq.
func (s *MemoryStore) Append(ctx context.Context, in AppendInput) (Entry, error) {
	if in.AccountID == "" || in.LessonID == "" {
		return Entry{}, errors.New("progress: invalid input")
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Entry{}, fmt.Errorf("progress: id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.accounts[in.AccountID]
	if l == nil {
		l = &memLog{entries: make([]Entry, 0, 16)}
		s.accounts[in.AccountID] = l
	}

	l.seq++
	e := Entry{
		ID:         id,
		AccountID:  in.AccountID,
		Seq:        l.seq,
		LessonID:   in.LessonID,
		Status:     in.Status,
		XPEarned:   in.XPEarned,
		GemsEarned: in.GemsEarned,
		RecordedAt: now,
	}
	l.entries = append(l.entries, e)

	// Bound memory per account.
	if len(l.entries) > memMaxEntriesPerAccount {
		l.entries = l.entries[len(l.entries)-memMaxEntriesPerAccount:]
	}

	return e, nil
}

// List returns a copy of the account's entries ordered by seq.
// An account with no entries yields an empty, non-nil slice.
func (s *MemoryStore) List(ctx context.Context, accountID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.accounts[accountID]
	if l == nil {
		return []Entry{}, nil
	}
	return append([]Entry(nil), l.entries...), nil
}
