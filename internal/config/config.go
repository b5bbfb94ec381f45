// Package config builds the process-wide configuration.
//
// Config is constructed exactly once at startup by Load and then passed by
// value (or pointer) to whatever needs it. Nothing in the application reads
// environment variables after that point.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// InsecureDevSecret is the token secret used when TOKEN_SECRET is unset.
// It must be overridden in production.
const InsecureDevSecret = "insecure-development-secret-change-me"

// Driver names accepted in Config.DatabaseDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// TokenConfig groups the signing parameters for access tokens.
type TokenConfig struct {
	Secret    string
	Algorithm string        // HS256, HS384 or HS512
	Lifetime  time.Duration // expiry window from issuance
	Issuer    string
}

// Config is the immutable application configuration.
type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseDriver string // derived from DatabaseURL
	Token          TokenConfig
	BcryptCost     int
	AllowedOrigins []string
	LogLevel       slog.Level
	LogFormat      string // "text" or "json"
}

// Default returns the development configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           8080,
		DatabaseURL:    "data/social.db",
		DatabaseDriver: DriverSQLite,
		Token: TokenConfig{
			Secret:    InsecureDevSecret,
			Algorithm: "HS256",
			Lifetime:  30 * time.Minute,
			Issuer:    "social-ledger",
		},
		BcryptCost:     12,
		AllowedOrigins: []string{"*"},
		LogLevel:       slog.LevelInfo,
		LogFormat:      "text",
	}
}

// Load reads an optional .env file and then the process environment.
// Every malformed value is reported; the first problem does not hide the rest.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup. Tests pass a map.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var problems []string

	intVar := func(key string, dst *int) {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: expected integer, got %q", key, raw))
			return
		}
		*dst = v
	}
	strVar := func(key string, dst *string) {
		if raw, ok := lookup(key); ok && raw != "" {
			*dst = raw
		}
	}

	intVar("PORT", &cfg.Port)
	strVar("DATABASE_URL", &cfg.DatabaseURL)
	strVar("TOKEN_SECRET", &cfg.Token.Secret)
	strVar("TOKEN_ALGORITHM", &cfg.Token.Algorithm)
	strVar("TOKEN_ISSUER", &cfg.Token.Issuer)
	intVar("BCRYPT_COST", &cfg.BcryptCost)
	strVar("LOG_FORMAT", &cfg.LogFormat)

	lifetime := int(cfg.Token.Lifetime / time.Minute)
	intVar("TOKEN_LIFETIME_MINUTES", &lifetime)
	if lifetime <= 0 {
		problems = append(problems, fmt.Sprintf("TOKEN_LIFETIME_MINUTES: must be positive, got %d", lifetime))
	}
	cfg.Token.Lifetime = time.Duration(lifetime) * time.Minute

	if raw, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}

	if raw, ok := lookup("LOG_LEVEL"); ok && raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			problems = append(problems, fmt.Sprintf("LOG_LEVEL: %v", err))
		}
	}

	switch cfg.Token.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		problems = append(problems, fmt.Sprintf("TOKEN_ALGORITHM: unsupported algorithm %q", cfg.Token.Algorithm))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT: expected text or json, got %q", cfg.LogFormat))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT: out of range: %d", cfg.Port))
	}

	cfg.DatabaseDriver = DriverFor(cfg.DatabaseURL)

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return cfg, nil
}

// DriverFor picks the storage backend from the shape of a database URL.
func DriverFor(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// UsesInsecureSecret reports whether the development secret is in effect.
func (c Config) UsesInsecureSecret() bool {
	return c.Token.Secret == InsecureDevSecret
}

// WithOverrides returns a copy with CLI overrides applied. Zero values are ignored.
func (c Config) WithOverrides(port int, databaseURL string) Config {
	if port > 0 {
		c.Port = port
	}
	if databaseURL != "" {
		c.DatabaseURL = databaseURL
		c.DatabaseDriver = DriverFor(databaseURL)
	}
	return c
}

// NewLogger builds the process logger described by the configuration.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
