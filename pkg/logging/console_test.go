package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewConsoleHandler(&buf, level)), &buf
}

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	log, buf := newBufferLogger(slog.LevelInfo)
	log.Info("episode finished", "outcome", "escaped", "turns", 42, "rate", 0.25)

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("line missing newline: %q", line)
	}
	for _, want := range []string{"episode finished", "outcome=escaped", "turns=42", "rate=0.25"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	log, buf := newBufferLogger(slog.LevelWarn)
	log.Info("dropped")
	log.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("info record passed a warn-level handler: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestConsoleHandlerGroupsAndWith(t *testing.T) {
	log, buf := newBufferLogger(slog.LevelInfo)
	log = log.With("controller", "mcts").WithGroup("search")
	log.Info("decision", "cycles", 250)

	line := buf.String()
	if !strings.Contains(line, "controller=mcts") {
		t.Fatalf("inherited attr missing: %q", line)
	}
	if !strings.Contains(line, "search.cycles=250") {
		t.Fatalf("grouped attr missing: %q", line)
	}
}

func TestConsoleHandlerQuotesSpacedStrings(t *testing.T) {
	log, buf := newBufferLogger(slog.LevelInfo)
	log.Info("msg", "path", "out dir/episodes.parquet")

	if !strings.Contains(buf.String(), `path="out dir/episodes.parquet"`) {
		t.Fatalf("spaced value not quoted: %q", buf.String())
	}
}

func TestNewFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)
	log.Info("hello", "k", "v")

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"k":"v"`) {
		t.Fatalf("expected json line, got %q", line)
	}
}
