package authapi

import "testing"

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("QUEST_AUTH_TRUST_PROXY", "")
	t.Setenv("QUEST_HTTP_MAX_BODY_BYTES", "")

	cfg := LoadConfigFromEnv()

	if cfg.TrustProxy {
		t.Fatalf("trust proxy must default to false")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("max body bytes=%d want %d", cfg.MaxBodyBytes, 1<<20)
	}
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("QUEST_AUTH_TRUST_PROXY", "maybe")
	t.Setenv("QUEST_HTTP_MAX_BODY_BYTES", "-1")

	cfg := LoadConfigFromEnv()

	if cfg.TrustProxy {
		t.Fatalf("invalid bool must fall back to default")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("invalid size must fall back to default, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("QUEST_AUTH_TRUST_PROXY", "true")
	t.Setenv("QUEST_HTTP_MAX_BODY_BYTES", "4096")

	cfg := LoadConfigFromEnv()

	if !cfg.TrustProxy || cfg.MaxBodyBytes != 4096 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
