// Package session implements Quest's bearer-session layer.
//
// A session maps an opaque token to the normalized email of the account that
// opened it. Tokens are random strings issued by the token package and are
// stored hashed (HMAC-SHA256 when QUEST_TOKEN_HMAC_KEY is set; otherwise SHA-256).
// The plain token is only ever handed back to the caller of Open.
//
// Sessions are not revocable. They live until the process exits unless a
// TTL is configured, in which case Resolve ignores entries older than it.
package session
