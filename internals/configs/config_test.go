package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTTTL != 30*24*time.Hour {
		t.Fatalf("jwt ttl = %s, want 720h", cfg.JWTTTL)
	}
	if cfg.MeetingWorkers != 4 {
		t.Fatalf("meeting workers = %d, want 4", cfg.MeetingWorkers)
	}
	if cfg.Zoom.Enabled() {
		t.Fatalf("zoom must be disabled without credentials")
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := []byte("server:\n  port: \"8081\"\n  timezone: UTC\nmeetings:\n  concurrency: 8\ndependencies:\n  kafka_brokers: [\"k1:9092\"]\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MEETING_CONCURRENCY", "2")
	t.Setenv("ZOOM_ACCOUNT_ID", "acc")
	t.Setenv("ZOOM_CLIENT_ID", "cid")
	t.Setenv("ZOOM_CLIENT_SECRET", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" || cfg.SessionTZ != "UTC" {
		t.Fatalf("file values not applied: port=%s tz=%s", cfg.Port, cfg.SessionTZ)
	}
	if cfg.MeetingWorkers != 2 {
		t.Fatalf("env must win over file, got %d", cfg.MeetingWorkers)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Fatalf("kafka brokers = %v", cfg.KafkaBrokers)
	}
	if !cfg.Zoom.Enabled() {
		t.Fatalf("zoom should be enabled")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SESSION_TIMEZONE", "Mars/Olympus")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://x", Host: "h"}
	if d.DSN() != "postgres://x" {
		t.Fatalf("dsn = %s", d.DSN())
	}
}
