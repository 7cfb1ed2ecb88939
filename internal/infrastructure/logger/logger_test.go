package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"Debug", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Format: "json", Level: "info"}, &buf)

	log.Info().Str("booking_id", "BK-2410-0001").Msg("escrow released")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}

	if fields["message"] != "escrow released" || fields["booking_id"] != "BK-2410-0001" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if fields["service"] != "tutorescrow" {
		t.Fatalf("expected service field, got %v", fields["service"])
	}
}

func TestNewWithWriterCustomService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Service: "tutorescrow-cli"}, &buf)

	log.Info().Msg("migrated")

	if !strings.Contains(buf.String(), `"service":"tutorescrow-cli"`) {
		t.Fatalf("expected custom service, got %q", buf.String())
	}
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Format: "json", Level: "warn"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Format: "console", Level: "debug"}, &buf)

	log.Debug().Msg("hello")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}
