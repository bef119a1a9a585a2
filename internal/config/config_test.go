package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("BASE_URL", "http://localhost:8080")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseURL != "mongodb://localhost:27017" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "mongodb://localhost:27017")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseName != "Removify" {
		t.Errorf("DatabaseName = %q, want %q", cfg.DatabaseName, "Removify")
	}
	if cfg.SessionMaxAge != 432000 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 432000)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.RateLimitTakedown != 30 {
		t.Errorf("RateLimitTakedown = %d, want %d", cfg.RateLimitTakedown, 30)
	}
	if cfg.RevenueCacheTTL != 5*time.Minute {
		t.Errorf("RevenueCacheTTL = %v, want %v", cfg.RevenueCacheTTL, 5*time.Minute)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false for http BASE_URL")
	}
	if cfg.SlackNotificationsEnabled() {
		t.Error("SlackNotificationsEnabled should be false without token and channel")
	}
	if cfg.RedisURL != "" || cfg.TracingEndpoint != "" {
		t.Errorf("optional integrations should be empty: redis=%q tracing=%q", cfg.RedisURL, cfg.TracingEndpoint)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("BASE_URL", "https://app.removify.io/")
	t.Setenv("DATABASE_NAME", "RemovifyStaging")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_CHANNEL_ID", "C123")
	t.Setenv("SLACK_CLIENT_ID", "cid")
	t.Setenv("SLACK_CLIENT_SECRET", "csecret")
	t.Setenv("SLACK_STATE_SECRET", "ssecret")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("RATE_LIMIT_TAKEDOWN", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REVENUE_CACHE_TTL", "30s")
	t.Setenv("TRACING_ENDPOINT", "http://jaeger:14268/api/traces")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "3001")
	t.Setenv("COOKIE_DOMAIN", ".removify.io")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://removify.io")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BaseURL != "https://app.removify.io" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BASE_URL")
	}
	if cfg.DatabaseName != "RemovifyStaging" {
		t.Errorf("DatabaseName = %q", cfg.DatabaseName)
	}
	if !cfg.SlackNotificationsEnabled() {
		t.Error("SlackNotificationsEnabled should be true")
	}
	if cfg.SlackClientID != "cid" || cfg.SlackClientSecret != "csecret" || cfg.SlackStateSecret != "ssecret" {
		t.Errorf("slack oauth = %q/%q/%q", cfg.SlackClientID, cfg.SlackClientSecret, cfg.SlackStateSecret)
	}
	if cfg.SessionMaxAge != 3600 {
		t.Errorf("SessionMaxAge = %d, want 3600", cfg.SessionMaxAge)
	}
	if cfg.RateLimitGeneral != 60 || cfg.RateLimitTakedown != 5 {
		t.Errorf("rate limits = %d/%d, want 60/5", cfg.RateLimitGeneral, cfg.RateLimitTakedown)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.RevenueCacheTTL != 30*time.Second {
		t.Errorf("RevenueCacheTTL = %v, want 30s", cfg.RevenueCacheTTL)
	}
	if cfg.TracingEndpoint != "http://jaeger:14268/api/traces" || cfg.Environment != "production" {
		t.Errorf("tracing = %q/%q", cfg.TracingEndpoint, cfg.Environment)
	}
	if cfg.ServerPort != "3001" {
		t.Errorf("ServerPort = %q, want 3001", cfg.ServerPort)
	}
	if cfg.CookieDomain != ".removify.io" {
		t.Errorf("CookieDomain = %q", cfg.CookieDomain)
	}
	if cfg.CORSAllowedOrigin != "https://removify.io" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SESSION_MAX_AGE", "five days")
	t.Setenv("RATE_LIMIT_TAKEDOWN", "-1")
	t.Setenv("REVENUE_CACHE_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.SessionMaxAge != 432000 {
		t.Errorf("SessionMaxAge = %d, want default", cfg.SessionMaxAge)
	}
	if cfg.RateLimitTakedown != 30 {
		t.Errorf("RateLimitTakedown = %d, want default", cfg.RateLimitTakedown)
	}
	if cfg.RevenueCacheTTL != 5*time.Minute {
		t.Errorf("RevenueCacheTTL = %v, want default", cfg.RevenueCacheTTL)
	}
}

func TestLoad_MissingRequired_ReturnsError(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "BASE_URL"} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnvVars(t)
			t.Setenv(key, "")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for missing %s, got nil", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error %q should name %s", err, key)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REMOVIFY_TEST_FROM_FILE=file\nREMOVIFY_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("REMOVIFY_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("REMOVIFY_TEST_FROM_FILE") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv("REMOVIFY_TEST_FROM_FILE"); got != "file" {
		t.Errorf("REMOVIFY_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("REMOVIFY_TEST_PRESET"); got != "env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv returned error for missing file: %v", err)
	}
}
