package session

import (
	"context"
	"time"
)

// Session is a bearer session as recorded by a Store.
// Email is a weak reference: the account may be deleted while the session lives.
type Session struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Opened is the result of opening a session.
// Token is the plain bearer token; it is never stored.
type Opened struct {
	Token     string
	SessionID string
}

// Store abstracts session state.
//
// Implementations must make Open a single atomic insert and keep Resolve free
// of side effects.
type Store interface {
	// Open issues a fresh token bound to email.
	Open(ctx context.Context, email string) (Opened, error)

	// Resolve returns the session for token, or ErrSessionNotFound.
	Resolve(ctx context.Context, token string) (Session, error)
}
