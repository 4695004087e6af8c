package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: unexpected error: %v", err)
	}
	if cfg.Port != "5000" || cfg.SessionTTL != 5*time.Hour || !cfg.CookieSecure || cfg.TrustProxy {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MongoDB != "dream-dwell" || cfg.RateLimitPerMinute != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if err := cfg.RequireServe(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "DATABASE_URL=postgres://localhost/dream\nACCESS_TOKEN_SECRET=from-file\nCORS_ORIGINS=https://a.example, https://b.example\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ACCESS_TOKEN_SECRET", "from-env")
	t.Setenv("SESSION_TTL", "90m")

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/dream" {
		t.Fatalf("expected DATABASE_URL from file, got %q", cfg.DatabaseURL)
	}
	if cfg.AccessTokenSecret != "from-env" {
		t.Fatalf("expected environment to win, got %q", cfg.AccessTokenSecret)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl, got %s", cfg.SessionTTL)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if err := cfg.RequireServe(); err != nil {
		t.Fatalf("require serve: %v", err)
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid SESSION_TTL to fail")
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Config{LogLevel: "warn"}.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}
