// Package auth composes the identity and session stores into the four
// boundary operations exposed to clients: Signup, Login, CurrentSession and
// RequestPasswordReset.
//
// Transport concerns (JSON, status codes, headers) live in package authapi.
package auth
