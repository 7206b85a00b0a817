package config

import (
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("KNOTES_TEST_SET", "value")
	if got := envOr("KNOTES_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("envOr set: %q", got)
	}
	if got := envOr("KNOTES_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("envOr unset: %q", got)
	}
}

func TestParseDurationOr(t *testing.T) {
	t.Setenv("KNOTES_TEST_DUR", "30s")
	if got := parseDurationOr("KNOTES_TEST_DUR", time.Second); got != 30*time.Second {
		t.Fatalf("valid duration: %v", got)
	}
	t.Setenv("KNOTES_TEST_DUR", "banana")
	if got := parseDurationOr("KNOTES_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("invalid duration should fall back: %v", got)
	}
}

func TestParseIntOr(t *testing.T) {
	t.Setenv("KNOTES_TEST_INT", "42")
	if got := parseIntOr("KNOTES_TEST_INT", 7); got != 42 {
		t.Fatalf("valid int: %d", got)
	}
	t.Setenv("KNOTES_TEST_INT", "-3")
	if got := parseIntOr("KNOTES_TEST_INT", 7); got != 7 {
		t.Fatalf("non-positive int should fall back: %d", got)
	}
	t.Setenv("KNOTES_TEST_INT", "x")
	if got := parseIntOr("KNOTES_TEST_INT", 7); got != 7 {
		t.Fatalf("garbage int should fall back: %d", got)
	}
}

func TestLoadEnvFileDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("KNOTES_DB_PATH", "from-env.db")

	cfg := Load()
	if cfg.DBPath != "from-env.db" {
		t.Fatalf("env var lost to .env file: %q", cfg.DBPath)
	}
	if cfg.CacheTTL != 5*time.Second || cfg.CacheMax != 100 {
		t.Fatalf("unexpected cache defaults: %v %d", cfg.CacheTTL, cfg.CacheMax)
	}
}

func TestLoadBootstrapsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("KNOTES_DB_PATH", "")
	t.Setenv("KNOTES_LISTEN_ADDR", "")

	cfg := Load()
	if cfg.DBPath != "knotes.db" {
		t.Fatalf("bootstrap db path: %q", cfg.DBPath)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Fatalf("bootstrap listen addr: %q", cfg.ListenAddr)
	}
}
