package identity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

const dummyPassword = "dummy-password-for-timing-only"

// MemoryStore is the in-process identity store.
// A single RWMutex guards the map; hashing and verification run outside it.
type MemoryStore struct {
	hasher CredentialHasher

	// dummyHash is verified when an account is missing so both failure paths cost the same.
	dummyHash string

	mu       sync.RWMutex
	accounts map[string]*memAccount // normalized email -> record
	seq      int64
}

type memAccount struct {
	account      Account
	passwordHash string
}

// NewMemoryStore constructs a MemoryStore that hashes credentials with hasher.
func NewMemoryStore(hasher CredentialHasher) (*MemoryStore, error) {
	if hasher == nil {
		return nil, fmt.Errorf("identity: nil credential hasher")
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("identity: dummy hash: %w", err)
	}

	return &MemoryStore{
		hasher:    hasher,
		dummyHash: dummy,
		accounts:  make(map[string]*memAccount),
	}, nil
}

// Create hashes the password and inserts a new account under the normalized email.
func (s *MemoryStore) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.Create"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	email := NormalizeEmail(in.Email)
	if email == "" {
		return Account{}, invalidInput(op, "email is required")
	}
	name := strings.TrimSpace(in.Name)

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	prog := DefaultProgression(name)
	if in.Progression != nil {
		prog = *in.Progression
	}

	// Hash before taking the lock: it is CPU-bound and independent of store state.
	pwHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Account{}, fmt.Errorf("%s: hash: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return Account{}, ConflictError{Op: op, Field: "email"}
	}

	s.seq++
	acct := Account{
		ID:          fmt.Sprintf("user-%d", s.seq),
		Email:       email,
		Name:        name,
		Progression: prog,
		CreatedAt:   now,
	}
	s.accounts[email] = &memAccount{account: acct, passwordHash: pwHash}

	return acct, nil
}

// Lookup returns the account for email.
func (s *MemoryStore) Lookup(ctx context.Context, email string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	key := NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[key]
	if !ok {
		return Account{}, NotFoundError{Op: "identity.Lookup", Resource: "account"}
	}
	return rec.account, nil
}

// VerifyCredential checks plain against the stored credential for email.
func (s *MemoryStore) VerifyCredential(ctx context.Context, email, plain string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	key := NormalizeEmail(email)

	s.mu.RLock()
	rec, ok := s.accounts[key]
	var (
		acct   Account
		stored string
	)
	if ok {
		acct = rec.account
		stored = rec.passwordHash
	}
	s.mu.RUnlock()

	if !ok {
		// Timing resistance: perform a dummy verify when the account is missing.
		_ = s.hasher.Verify(s.dummyHash, plain)
		return Account{}, invalidCredentials()
	}
	if !s.hasher.Verify(stored, plain) {
		return Account{}, invalidCredentials()
	}
	return acct, nil
}

// Exists reports whether an account is registered under email.
func (s *MemoryStore) Exists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := NormalizeEmail(email)

	s.mu.RLock()
	_, ok := s.accounts[key]
	s.mu.RUnlock()

	return ok, nil
}

// ApplyProgress credits XP and gems to the account and returns the updated copy.
// A delta that would overflow or drive either total negative is rejected
// with ErrInvalidInput and leaves the account unchanged.
func (s *MemoryStore) ApplyProgress(ctx context.Context, email string, delta ProgressDelta) (Account, error) {
	const op = "identity.ApplyProgress"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[key]
	if !ok {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	xp, okXP := addBounded(rec.account.XP, delta.XP)
	gems, okGems := addBounded(rec.account.Gems, delta.Gems)
	if !okXP || !okGems {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "progress out of range"}
	}

	rec.account.XP = xp
	rec.account.Gems = gems
	return rec.account, nil
}

// addBounded returns cur+delta when the sum stays within [0, math.MaxInt].
func addBounded(cur, delta int) (int, bool) {
	if delta > 0 && cur > math.MaxInt-delta {
		return 0, false
	}
	sum := cur + delta
	if sum < 0 {
		return 0, false
	}
	return sum, true
}

// Delete removes the account. Sessions opened against it then resolve to a missing account.
func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[key]; !ok {
		return NotFoundError{Op: "identity.Delete", Resource: "account"}
	}
	delete(s.accounts, key)
	return nil
}

// Len returns the number of stored accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
