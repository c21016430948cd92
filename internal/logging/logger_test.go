package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{" Debug ", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")

	out := buf.String()
	assert.NotContains(t, out, "trace message")
	assert.Contains(t, out, "debug message")
}

func TestNewPrettyWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Pretty: true, Output: &buf})

	logger.Info().Str("file", "a.bin").Msg("scanning")

	out := buf.String()
	assert.Contains(t, out, "scanning")
	assert.Contains(t, out, "file=a.bin")
	assert.NotContains(t, out, "\x1b[")
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{Level: "info", Output: &buf}, "scanner")

	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"scanner"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(cfg.Level))
	assert.True(t, cfg.Pretty)
	assert.NotNil(t, cfg.Output)
}
