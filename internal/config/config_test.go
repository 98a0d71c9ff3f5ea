package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "ANCHOR_DATE", "TIMEZONE", "BUSINESS_NAME",
		"SESSION_IDLE_TIMEOUT", "AUTO_MIGRATE", "SPEECH_ENABLED", "CORS_ALLOWED_ORIGINS",
		"RATE_LIMIT_PER_SECOND", "RATE_LIMIT_BURST", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.AnchorDate != "" {
		t.Fatalf("expected no anchor date, got %q", cfg.AnchorDate)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Timezone)
	}
	if cfg.BusinessName != "Deewanshi Car Center" {
		t.Fatalf("unexpected business name %q", cfg.BusinessName)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Fatalf("expected 30m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate on by default")
	}
	if cfg.SpeechEnabled {
		t.Fatalf("expected speech disabled by default")
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected memory sessions by default, got redis %q", cfg.RedisAddr)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitPerSecond != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANCHOR_DATE", " 2025-12-03 ")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("CONVERSATION_LOG_ENABLED", "true")
	t.Setenv("SESSION_IDLE_TIMEOUT", "10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_SECOND", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("EXPORT_BUCKET", "carservice-exports")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.AnchorDate != "2025-12-03" {
		t.Fatalf("expected trimmed anchor, got %q", cfg.AnchorDate)
	}
	if cfg.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected timezone override, got %s", cfg.Timezone)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.AutoMigrate {
		t.Fatalf("expected auto migrate disabled")
	}
	if !cfg.ConversationLogEnabled {
		t.Fatalf("expected conversation log enabled")
	}
	if cfg.SessionIdleTimeout != 10*time.Minute {
		t.Fatalf("expected idle override, got %s", cfg.SessionIdleTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitPerSecond != 0.5 || cfg.RateLimitBurst != 3 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
	if cfg.ExportBucket != "carservice-exports" {
		t.Fatalf("expected export bucket, got %s", cfg.ExportBucket)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("AUTO_MIGRATE", "maybe")
	cfg := Load()
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Fatalf("expected default idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.RateLimitBurst != 10 {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected default auto migrate")
	}
}
