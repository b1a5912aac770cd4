package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), tt.input)
	}
}

func TestSetupLevelFiltering(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	Setup("warn")

	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelWarn))
}

func TestSetupJSONFormat(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	t.Setenv("LOG_FORMAT", "json")
	Setup("info")

	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelInfo))
}
