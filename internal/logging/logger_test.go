package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", FormatJSON, &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info().Msg("dropped")
	logger.Warn().Str("entity", "booking").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at warn level, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["message"] != "kept" || entry["entity"] != "booking" || entry["service"] != "venueflow" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("", "", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New("loud", FormatJSON, nil); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Fatalf("expected format error")
	}
}
