package token

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestIssue_URLSafeAndEntropy(t *testing.T) {
	tok, err := Issue(32)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token is not URL-safe: %q", tok)
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("entropy=%d bytes want 32", len(raw))
	}
}

func TestIssue_RaisesSmallSizes(t *testing.T) {
	tok, err := Issue(4)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) < MinBytes {
		t.Fatalf("entropy=%d bytes want >= %d", len(raw), MinBytes)
	}
}

func TestIssue_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := Issue(32)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d issues", i)
		}
		seen[tok] = struct{}{}
	}
}

func TestHasher_Modes(t *testing.T) {
	plain := Hasher{}
	keyed := NewHasher([]byte(strings.Repeat("k", 32)))

	if plain.Keyed() || !keyed.Keyed() {
		t.Fatalf("unexpected mode flags")
	}

	a := plain.Sum("tok")
	b := keyed.Sum("tok")
	if len(a) != 64 || len(b) != 64 {
		t.Fatalf("expected 64-char hex digests")
	}
	if a == b {
		t.Fatalf("keyed digest must differ from plain sha256")
	}
	if a != HashSHA256Hex("tok") {
		t.Fatalf("plain hasher must match HashSHA256Hex")
	}
	if keyed.Sum("tok") != b {
		t.Fatalf("digest must be deterministic")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyMissing {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyTooShort {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	t.Setenv(HMACEnvKey, strings.Repeat("x", 40))
	key, err := HMACKeyFromEnv(32)
	if err != nil || len(key) != 40 {
		t.Fatalf("unexpected key=%d err=%v", len(key), err)
	}
	if !HasherFromEnv().Keyed() {
		t.Fatalf("HasherFromEnv must be keyed when env is set")
	}
}
