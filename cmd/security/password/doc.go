// Package password turns plaintext passwords into storable salted digests and
// verifies plaintexts against them.
//
// The default scheme stores "salt$digest", where salt is a hex-encoded random
// value drawn per credential and digest is hex(SHA-256(salt ":" password)).
// An argon2id scheme (PHC string format) is available through Config.Scheme.
//
// Security notes:
// - Stored strings are treated as untrusted input during Verify. Malformed
//   input verifies as false; it never panics.
// - Digest comparison is constant-time.
// - Argon2id verification refuses parameters far above the configured maxima.
package password
