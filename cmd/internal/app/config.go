package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	LogLevel  string
	LogFormat string // json | pretty
	LogColor  bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	// CORSAllowedOrigins accepts exact origins, "*" and port wildcards ("http://127.0.0.1:*").
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// SeedDemo creates the demo learner at startup.
	SeedDemo bool

	// If true, QUEST_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and session digests are keyed.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("QUEST_HTTP_ADDR", "0.0.0.0:8000"),

		LogLevel:  EnvString("QUEST_LOG_LEVEL", "info"),
		LogFormat: EnvString("QUEST_LOG_FORMAT", "json"),
		LogColor:  EnvBool("QUEST_LOG_COLOR", true),

		ReadHeaderTimeout: EnvDuration("QUEST_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("QUEST_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("QUEST_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("QUEST_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("QUEST_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxHeaderBytes: EnvInt("QUEST_HTTP_MAX_HEADER_BYTES", 1<<20),

		CORSAllowedOrigins:   EnvCSV("QUEST_CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowCredentials: EnvBool("QUEST_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("QUEST_CORS_MAX_AGE_SECONDS", 600),

		SeedDemo: EnvBool("QUEST_SEED_DEMO", true),

		RequireTokenHMAC: EnvBool("QUEST_REQUIRE_TOKEN_HMAC", false),
	}
}
