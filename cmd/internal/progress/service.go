package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quest/cmd/identity"
)

// Well-known statuses. Record stores any non-empty status as given.
const (
	StatusStarted    = "started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// MaxEarnedPerEntry bounds XP and gems credited by a single entry.
const MaxEarnedPerEntry = 10_000

// ErrInvalidInput is returned for malformed progress updates.
var ErrInvalidInput = errors.New("invalid progress update")

// Update is a client-submitted progress change.
type Update struct {
	LessonID   string
	Status     string
	XPEarned   int
	GemsEarned int
}

// Crediter applies earned rewards to an account. identity.Store satisfies it.
type Crediter interface {
	ApplyProgress(ctx context.Context, email string, delta identity.ProgressDelta) (identity.Account, error)
}

// Publisher is notified after an entry is recorded.
type Publisher interface {
	PublishProgress(e Entry)
}

// Observer counts recorded entries.
type Observer interface {
	ProgressRecorded(status string)
}

// Service records progress for authenticated accounts.
type Service struct {
	log       *slog.Logger
	store     Store
	accounts  Crediter
	publisher Publisher
	observer  Observer
}

// NewService constructs a Service. publisher and observer may be nil.
func NewService(log *slog.Logger, store Store, accounts Crediter, publisher Publisher, observer Observer) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:       log,
		store:     store,
		accounts:  accounts,
		publisher: publisher,
		observer:  observer,
	}
}

// Record credits the earned XP and gems to acct, then appends the entry.
// Lesson ids and statuses are free-form. A failed credit stores nothing;
// if the append fails after a credit, the credit is reversed.
func (s *Service) Record(ctx context.Context, acct identity.Account, u Update) (Entry, identity.Account, error) {
	u.LessonID = strings.TrimSpace(u.LessonID)
	u.Status = strings.TrimSpace(u.Status)

	if err := validateUpdate(u); err != nil {
		return Entry{}, identity.Account{}, err
	}

	delta := identity.ProgressDelta{XP: u.XPEarned, Gems: u.GemsEarned}
	credited := u.XPEarned != 0 || u.GemsEarned != 0

	updated := acct
	if credited {
		var err error
		updated, err = s.accounts.ApplyProgress(ctx, acct.Email, delta)
		if err != nil {
			return Entry{}, identity.Account{}, fmt.Errorf("progress: credit: %w", err)
		}
	}

	e, err := s.store.Append(ctx, AppendInput{
		AccountID:  acct.ID,
		LessonID:   u.LessonID,
		Status:     u.Status,
		XPEarned:   u.XPEarned,
		GemsEarned: u.GemsEarned,
	})
	if err != nil {
		if credited {
			s.reverseCredit(acct, delta)
		}
		return Entry{}, identity.Account{}, fmt.Errorf("progress: append: %w", err)
	}

	if s.observer != nil {
		s.observer.ProgressRecorded(e.Status)
	}
	if s.publisher != nil {
		s.publisher.PublishProgress(e)
	}

	s.log.Info("progress.recorded",
		"user_id", acct.ID,
		"lesson_id", e.LessonID,
		"status", e.Status,
		"xp", e.XPEarned,
		"gems", e.GemsEarned,
	)
	return e, updated, nil
}

// List returns acct's entries in recording order.
func (s *Service) List(ctx context.Context, acct identity.Account) ([]Entry, error) {
	return s.store.List(ctx, acct.ID)
}

// reverseCredit runs detached from the request context, which may be the
// reason the append failed.
func (s *Service) reverseCredit(acct identity.Account, delta identity.ProgressDelta) {
	undo := identity.ProgressDelta{XP: -delta.XP, Gems: -delta.Gems}
	if _, err := s.accounts.ApplyProgress(context.Background(), acct.Email, undo); err != nil {
		s.log.Error("progress.credit.reverse.fail", "user_id", acct.ID, "err", err)
	}
}

func validateUpdate(u Update) error {
	if u.LessonID == "" {
		return fmt.Errorf("%w: lesson_id is required", ErrInvalidInput)
	}
	if u.Status == "" {
		return fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	if u.XPEarned < 0 || u.GemsEarned < 0 {
		return fmt.Errorf("%w: earned amounts must not be negative", ErrInvalidInput)
	}
	if u.XPEarned > MaxEarnedPerEntry || u.GemsEarned > MaxEarnedPerEntry {
		return fmt.Errorf("%w: earned amounts must not exceed %d", ErrInvalidInput, MaxEarnedPerEntry)
	}
	return nil
}
