package ui

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromVerbosity(t *testing.T) {
	require.Equal(t, slog.LevelWarn, LevelFromVerbosity(0))
	require.Equal(t, slog.LevelWarn, LevelFromVerbosity(-3))
	require.Equal(t, slog.LevelInfo, LevelFromVerbosity(1))
	require.Equal(t, slog.LevelDebug, LevelFromVerbosity(2))
	require.Equal(t, slog.LevelDebug, LevelFromVerbosity(5))
}

func TestLoggerFiltersAndFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, slog.LevelInfo)

	log.Debugf("hidden %d", 1)
	log.Infof("Genre %d %s", 28, "Action")
	log.Warnf("GET %s error", "/browse/genre/3")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.NotContains(t, out, "time=")
	require.Contains(t, out, `level=I msg="Genre 28 Action"`)
	require.Contains(t, out, `level=W msg="GET /browse/genre/3 error"`)
}
