package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	// TrustProxy makes audit records use X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
}

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{
		TrustProxy:   false,
		MaxBodyBytes: 1 << 20, // 1 MiB
	}
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		TrustProxy:   envBool("QUEST_AUTH_TRUST_PROXY", def.TrustProxy),
		MaxBodyBytes: envInt64("QUEST_HTTP_MAX_BODY_BYTES", def.MaxBodyBytes),
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
