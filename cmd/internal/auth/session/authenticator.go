package session

import (
	"context"
	"errors"

	"quest/cmd/identity"
)

// AccountLookup is the slice of identity.Store the authenticator needs.
type AccountLookup interface {
	Lookup(ctx context.Context, email string) (identity.Account, error)
}

// Authenticator gates protected operations on a bearer token.
// It has no side effects and is safe for concurrent use.
type Authenticator struct {
	sessions Store
	accounts AccountLookup
}

// NewAuthenticator constructs an Authenticator over the given stores.
func NewAuthenticator(sessions Store, accounts AccountLookup) *Authenticator {
	return &Authenticator{sessions: sessions, accounts: accounts}
}

// Authenticate resolves token to the account that owns it.
//
// Failures are reported in order:
//   - ErrMissingCredentials: token is empty
//   - ErrInvalidSession: token does not resolve
//   - ErrAccountGone: the session's account no longer exists
func (a *Authenticator) Authenticate(ctx context.Context, token string) (identity.Account, error) {
	if token == "" {
		return identity.Account{}, ErrMissingCredentials
	}

	sess, err := a.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return identity.Account{}, ErrInvalidSession
		}
		return identity.Account{}, err
	}

	acct, err := a.accounts.Lookup(ctx, sess.Email)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.Account{}, ErrAccountGone
		}
		return identity.Account{}, err
	}

	return acct, nil
}
