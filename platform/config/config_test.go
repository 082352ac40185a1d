package config

import (
	"strings"
	"testing"
	"time"

	"relocation_quiz_backend/platform/apperr"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("CORS_ORIGINS", "https://example.com, https://www.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetContactRateWindow() != 300*time.Second ||
		cfg.GetLeadMagnetRateWindow() != 120*time.Second ||
		cfg.GetQuizRateWindow() != 180*time.Second {
		t.Fatalf("unexpected windows: %+v", cfg)
	}
	if len(cfg.GetCORSOrigins()) != 2 || cfg.GetCORSAllowAll() {
		t.Fatalf("unexpected cors settings: %v %v", cfg.GetCORSOrigins(), cfg.GetCORSAllowAll())
	}
	if cfg.IsAdminAPIEnabled() || cfg.IsMinIOEnabled() {
		t.Fatalf("optional integrations must be off by default")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error without DATABASE_URL, got %v", err)
	}
}

func TestLoadRejectsWindowLongerThanRetention(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("RATE_LIMIT_WINDOW_QUIZ", "200h")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when a window exceeds retention")
	}
}

func TestWildcardOriginEnablesAllowAll(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("CORS_ORIGINS", "*")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatalf("expected wildcard to enable allow-all")
	}
}

func TestLoadReportsMalformedInteger(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("PUBLIC_RATE_LIMIT_PER_MINUTE", "abc")

	_, err := Load()
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "PUBLIC_RATE_LIMIT_PER_MINUTE") {
		t.Fatalf("expected the offending key in the error, got %v", err)
	}
}

func TestLoadReportsMalformedDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quiz")
	t.Setenv("SUBMISSION_TIMEOUT", "ten seconds")

	_, err := Load()
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "SUBMISSION_TIMEOUT") {
		t.Fatalf("expected the offending key in the error, got %v", err)
	}
}

func TestLoadSchedulerWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RATE_LIMIT_WINDOW_QUIZ", "bogus")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_RETENTION", "48h")

	cfg, err := LoadScheduler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetRedisURL() != "redis://localhost:6379/0" || cfg.GetRateLimitRetention() != 48*time.Hour {
		t.Fatalf("unexpected scheduler settings: %+v", cfg)
	}
}

func TestLoadSchedulerRequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	_, err := LoadScheduler()
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error without REDIS_URL, got %v", err)
	}
}
