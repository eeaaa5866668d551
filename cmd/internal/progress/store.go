// Package progress records lesson progress per account and credits the
// earned XP and gems to the account's progression.
package progress

import (
	"context"
	"time"
)

// Entry is one recorded progress event.
type Entry struct {
	ID         string
	AccountID  string
	Seq        int64
	LessonID   string
	Status     string
	XPEarned   int
	GemsEarned int
	RecordedAt time.Time
}

// AppendInput describes a progress append request.
type AppendInput struct {
	AccountID  string
	LessonID   string
	Status     string
	XPEarned   int
	GemsEarned int
	Now        time.Time
}

// Store persists and queries progress entries.
//
// Requirements:
//   - Append-only; entries are never edited
//   - Monotonic seq per account
//   - List ordered by seq ASC
type Store interface {
	Append(ctx context.Context, in AppendInput) (Entry, error)
	List(ctx context.Context, accountID string) ([]Entry, error)
}
