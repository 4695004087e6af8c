// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AccessTokenSecret  string
	SessionTTL         time.Duration
	CookieSecure       bool
	TrustProxy         bool
	CORSOrigins        []string
	StripeSecretKey    string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	MongoURI           string
	MongoDB            string
	RateLimitPerMinute int
	LogLevel           string
}

var defaults = map[string]any{
	"PORT":                  "5000",
	"SESSION_TTL":           "5h",
	"COOKIE_SECURE":         true,
	"TRUST_PROXY":           false,
	"CORS_ORIGINS":          "http://localhost:5173",
	"REDIS_DB":              0,
	"MONGO_DB":              "dream-dwell",
	"RATE_LIMIT_PER_MINUTE": 30,
	"LOG_LEVEL":             "info",
}

var keys = []string{
	"PORT", "DATABASE_URL", "ACCESS_TOKEN_SECRET", "SESSION_TTL", "COOKIE_SECURE",
	"TRUST_PROXY", "CORS_ORIGINS", "STRIPE_SECRET_KEY", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"MONGO_URI", "MONGO_DB", "RATE_LIMIT_PER_MINUTE", "LOG_LEVEL",
}

// Load reads envFiles (missing files are ignored) and then the process
// environment. Real environment variables win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("config: SESSION_TTL %q is not a positive duration", v.GetString("SESSION_TTL"))
	}

	cfg := Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		SessionTTL:         ttl,
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		TrustProxy:         v.GetBool("TRUST_PROXY"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		StripeSecretKey:    v.GetString("STRIPE_SECRET_KEY"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		MongoURI:           v.GetString("MONGO_URI"),
		MongoDB:            v.GetString("MONGO_DB"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
	if cfg.RateLimitPerMinute <= 0 {
		return Config{}, fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must be positive")
	}
	return cfg, nil
}

// RequireDatabase is the check for commands that touch Postgres.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	return nil
}

// RequireServe is the check for running the HTTP server.
func (c Config) RequireServe() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("config: ACCESS_TOKEN_SECRET is required")
	}
	return nil
}

// Logger builds the JSON process logger at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
