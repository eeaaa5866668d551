package identity

import (
	"context"
	"net/url"
	"time"
)

// Default progression for newly created accounts.
const (
	DefaultLevel  = 1
	DefaultXP     = 0
	DefaultStreak = 0
	DefaultGems   = 500

	avatarBaseURL = "https://api.dicebear.com/7.x/initials/svg?seed="
)

// Progression holds the mutable learner fields owned by an Account.
// It is updated only through ApplyProgress; identity fields are never touched there.
type Progression struct {
	Level     int
	XP        int
	Streak    int
	Gems      int
	AvatarURL string
}

// Account is a learner identity as seen outside the store.
// IMPORTANT: it never carries the hashed credential.
type Account struct {
	ID    string
	Email string
	Name  string

	Progression

	CreatedAt time.Time
}

// CreateAccountInput describes a signup request.
// Progression is optional; nil applies the defaults for a new learner.
type CreateAccountInput struct {
	Email       string
	Name        string
	Password    string
	Progression *Progression
	Now         time.Time
}

// ProgressDelta is the change applied to an account by a progress entry.
type ProgressDelta struct {
	XP   int
	Gems int
}

// CredentialHasher hashes and verifies credentials.
// password.Config satisfies it.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Verify(stored, plain string) bool
}

// Store is the identity boundary.
//
// Concurrency contract:
//   - Create is a single atomic check-then-insert on the normalized email.
//   - Reads never observe a partially written account.
type Store interface {
	Create(ctx context.Context, in CreateAccountInput) (Account, error)
	Lookup(ctx context.Context, email string) (Account, error)

	// VerifyCredential returns ErrInvalidCredentials for both a missing account and a wrong password.
	VerifyCredential(ctx context.Context, email, plain string) (Account, error)

	// Exists reports account presence without verifying anything.
	Exists(ctx context.Context, email string) (bool, error)

	ApplyProgress(ctx context.Context, email string, delta ProgressDelta) (Account, error)
	Delete(ctx context.Context, email string) error
}

// DefaultProgression returns the starting progression for a learner named name.
func DefaultProgression(name string) Progression {
	return Progression{
		Level:     DefaultLevel,
		XP:        DefaultXP,
		Streak:    DefaultStreak,
		Gems:      DefaultGems,
		AvatarURL: avatarBaseURL + url.QueryEscape(name),
	}
}
