// Package token issues opaque session tokens and hashes them for server-side keys.
//
// Tokens are random capabilities with no decodable structure. The server keeps
// only a digest of each token:
// - Default dev mode: SHA-256(token) when no HMAC key is configured.
// - Keyed mode: HMAC-SHA256(token, key) when QUEST_TOKEN_HMAC_KEY is set.
// Both produce a stable 64-char hex string.
package token
