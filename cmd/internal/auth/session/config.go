package session

import (
	"os"
	"strconv"
	"strings"
	"time"

	"quest/cmd/security/token"
)

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// TokenBytes is the number of random bytes behind each bearer token.
	TokenBytes int

	// TTL bounds session lifetime. Zero keeps sessions for the life of the process.
	TTL time.Duration

	// SweepInterval is how often expired entries are dropped when TTL > 0.
	SweepInterval time.Duration
}

// DefaultConfig returns immortal sessions backed by 32-byte tokens.
func DefaultConfig() Config {
	return Config{
		TokenBytes:    token.MinBytes,
		TTL:           0,
		SweepInterval: time.Minute,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - QUEST_SESSION_TOKEN_BYTES (32..64)
//   - QUEST_SESSION_TTL (Go duration, 0 disables expiry)
//   - QUEST_SESSION_SWEEP_INTERVAL (Go duration, > 0)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("QUEST_SESSION_TOKEN_BYTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < token.MinBytes || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.TokenBytes = n
	}

	if v := strings.TrimSpace(os.Getenv("QUEST_SESSION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := strings.TrimSpace(os.Getenv("QUEST_SESSION_SWEEP_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SweepInterval = d
	}

	return cfg, nil
}
