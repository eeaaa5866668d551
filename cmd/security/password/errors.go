package password

import "errors"

// Public, stable errors for callers.
var (
	// ErrInvalidHash reports a malformed or unsupported stored credential.
	// Verify maps it to a false result.
	ErrInvalidHash = errors.New("invalid password hash")

	// ErrUnknownScheme is returned by Hash when Config.Scheme is not supported.
	ErrUnknownScheme = errors.New("unknown password scheme")
)
