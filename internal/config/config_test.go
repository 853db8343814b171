package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
log:
  level: warn
moderation:
  queue_page_size: 25
  bulk_max_per_minute: 5
  stats_cache_ttl: 45s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
	if cfg.Moderation.QueuePageSize != 25 {
		t.Fatalf("unexpected queue page size: %d", cfg.Moderation.QueuePageSize)
	}
	if cfg.Moderation.BulkMaxPerMinute != 5 {
		t.Fatalf("unexpected bulk max/min: %d", cfg.Moderation.BulkMaxPerMinute)
	}
	if cfg.Moderation.StatsCacheTTL != 45*time.Second {
		t.Fatalf("unexpected stats cache ttl: %v", cfg.Moderation.StatsCacheTTL)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default http addr, got %s", cfg.HTTP.Addr)
	}
	if cfg.Moderation.PendingTopicsMax != 50 {
		t.Fatalf("expected default pending topics max, got %d", cfg.Moderation.PendingTopicsMax)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("POSTGRES_DSN", "postgres://override:override@db:5432/mod")
	t.Setenv("MOD_STATS_CACHE_TTL", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Postgres.DSN != "postgres://override:override@db:5432/mod" {
		t.Fatalf("unexpected postgres dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Moderation.StatsCacheTTL != time.Minute {
		t.Fatalf("unexpected stats cache ttl: %v", cfg.Moderation.StatsCacheTTL)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration override")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"JWT_SECRET", "JWT_ACCESS_TTL",
		"MOD_QUEUE_PAGE_SIZE", "MOD_BULK_MAX_PER_MINUTE", "MOD_STATS_CACHE_TTL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
