package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelInfo))

	logger.Info("listening", "addr", "127.0.0.1:8080")

	out := buf.String()
	if !strings.Contains(out, "INFO listening\n") {
		t.Fatalf("missing level and message: %q", out)
	}
	if !strings.Contains(out, "  addr: 127.0.0.1:8080\n") {
		t.Fatalf("missing indented attr: %q", out)
	}
	// a plain buffer is not a terminal, so no escape codes
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color emitted to non-terminal writer: %q", out)
	}
}

func TestPrettyHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelWarn))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info record emitted below warn level: %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn record dropped: %q", buf.String())
	}
}

func TestPrettyHandlerGroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelInfo)).WithGroup("db")

	logger.Info("query", "duration_ms", 3)
	if !strings.Contains(buf.String(), "  db.duration_ms: 3\n") {
		t.Fatalf("group prefix missing: %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw).Level(); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
