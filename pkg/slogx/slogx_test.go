package slogx

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":     slog.LevelDebug,
		"warn":      slog.LevelWarn,
		"warning":   slog.LevelWarn,
		"ERROR":     slog.LevelError,
		"info":      slog.LevelInfo,
		"":          slog.LevelInfo,
		"gibberish": slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNew_DefaultLevel(t *testing.T) {
	logger := New(Config{Version: "test"})
	require.NotNil(t, logger)
	require.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
	require.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
