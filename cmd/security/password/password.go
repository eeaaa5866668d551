package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
	argon2Prefix  = "$argon2id$"

	saltSeparator = "$"
)

// Hash returns a storable credential for password using the configured scheme.
func (c Config) Hash(password string) (string, error) {
	switch c.Scheme {
	case SchemeSHA256, "":
		return c.hashSHA256(password)
	case SchemeArgon2id:
		return c.hashArgon2id(password)
	default:
		return "", ErrUnknownScheme
	}
}

// Verify reports whether password matches the stored credential.
// Malformed or unsupported credentials verify as false.
func (c Config) Verify(stored, password string) bool {
	if strings.HasPrefix(stored, argon2Prefix) {
		return c.verifyArgon2id(stored, password)
	}
	return verifySHA256(stored, password)
}

func (c Config) hashSHA256(password string) (string, error) {
	n := c.SaltBytes
	if n < 16 {
		n = 16
	}

	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	return salt + saltSeparator + saltedDigest(salt, password), nil
}

func verifySHA256(stored, password string) bool {
	salt, digest, ok := strings.Cut(stored, saltSeparator)
	if !ok || salt == "" || digest == "" {
		return false
	}

	calculated := saltedDigest(salt, password)
	return subtle.ConstantTimeCompare([]byte(calculated), []byte(digest)) == 1
}

func saltedDigest(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) hashArgon2id(password string) (string, error) {
	p := sanitizeParams(c.Params)

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func (c Config) verifyArgon2id(stored, password string) bool {
	params, salt, expected, err := decodeArgon2id(stored)
	if err != nil {
		return false
	}

	// Anti-DoS boundary: stored strings are untrusted, refuse pathological costs.
	if !withinReasonableBounds(params, sanitizeParams(c.Params)) {
		return false
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- expected length is bounded by withinReasonableBounds.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1
}

func sanitizeParams(p Argon2idParams) Argon2idParams {
	if p.Parallelism == 0 {
		p.Parallelism = 1
	}
	if p.Iterations == 0 {
		p.Iterations = 1
	}
	if p.MemoryKiB < 8*1024 {
		p.MemoryKiB = 8 * 1024
	}
	if p.SaltLength < 16 {
		p.SaltLength = 16
	}
	if p.KeyLength < 16 {
		p.KeyLength = 32
	}
	return p
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings still verify; wildly larger ones do not.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decodeArgon2id parses the encoded hash and returns params, salt and expected key.
func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	// Expected:
	// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v=19" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by withinReasonableBounds before use.
		KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by withinReasonableBounds before use.
	}

	return params, salt, key, nil
}
