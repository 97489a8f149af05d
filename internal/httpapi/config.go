// Package httpapi exposes a vault over HTTP with session-consistent
// reads: clients carry csmsdb cookies recording the writes they have
// observed, and reads are guaranteed to reflect at least those writes.
package httpapi

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the HTTP server settings, loaded from the environment.
type Config struct {
	Addr      string
	VaultPath string
	Gitless   bool
	AutoInit  bool
	ReadOnly  bool
	Format    string

	SessionMaxScopes int
	SessionTTL       time.Duration
	CookieSecure     bool
	MaxCookies       int
	MaxCookieBytes   int
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment. Every value has a usable default.
func LoadConfig() Config {
	_ = godotenv.Load()

	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	getBool := func(key string) bool {
		v, _ := strconv.ParseBool(os.Getenv(key))
		return v
	}
	getInt := func(key string, fallback int) int {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:      getEnv("POSTBED_ADDR", ":8080"),
		VaultPath: getEnv("POSTBED_VAULT", "."),
		Gitless:   getBool("POSTBED_GITLESS"),
		AutoInit:  getBool("POSTBED_AUTO_INIT"),
		ReadOnly:  getBool("POSTBED_READ_ONLY"),
		Format:    getEnv("POSTBED_FORMAT", "yaml"),

		SessionMaxScopes: getInt("POSTBED_SESSION_MAX_SCOPES", 0),
		CookieSecure:     getBool("POSTBED_COOKIE_SECURE"),
		MaxCookies:       getInt("POSTBED_SESSION_MAX_COOKIES", 0),
		MaxCookieBytes:   getInt("POSTBED_SESSION_MAX_COOKIE_BYTES", 0),
	}

	if v, err := time.ParseDuration(os.Getenv("POSTBED_SESSION_TTL")); err == nil && v > 0 {
		cfg.SessionTTL = v
	}

	return cfg
}
