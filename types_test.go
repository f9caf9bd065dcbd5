package portal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogLogger(base).With("service", "portal")
	logger.Debug("debug message", "k", 1)
	logger.Info("info message")
	logger.Warn("warn message", "user", "alice")
	logger.Error("error message", "error", "boom")

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 4)

	levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, entry := range entries {
		assert.Equal(t, levels[i], entry["level"])
		assert.Equal(t, "portal", entry["service"])
	}

	assert.Equal(t, "debug message", entries[0]["msg"])
	assert.EqualValues(t, 1, entries[0]["k"])
	assert.Equal(t, "alice", entries[2]["user"])
	assert.Equal(t, "boom", entries[3]["error"])
}

func TestNewSlogLoggerNil(t *testing.T) {
	logger := NewSlogLogger(nil)
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("fallback") })
}

func TestNormalizeLogger(t *testing.T) {
	assert.IsType(t, defLogger{}, normalizeLogger(nil))

	custom := NewSlogLogger(slog.Default())
	assert.Same(t, custom, normalizeLogger(custom))
}
