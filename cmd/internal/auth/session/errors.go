package session

import "errors"

var (
	// ErrMissingCredentials is returned when no bearer token was presented.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidSession is returned when a presented token does not resolve to a session.
	ErrInvalidSession = errors.New("invalid session token")

	// ErrAccountGone is returned when the session resolves but its account no longer exists.
	ErrAccountGone = errors.New("account no longer exists")

	// ErrSessionNotFound is returned by Store.Resolve for unknown or expired tokens.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
