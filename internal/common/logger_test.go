package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, level, "json"))
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	LogError(errors.New("disk full"), "Failed to add timeline event", Fields{"loan_id": 7})

	entry := decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Failed to add timeline event", entry["msg"])
	assert.Equal(t, "disk full", entry["error"])
	assert.EqualValues(t, 7, entry["loan_id"])
}

func TestLogInfoAndDebug(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	LogDebug("Session created", Fields{"variances": 3})
	assert.Empty(t, buf.String(), "debug suppressed at info level")

	LogInfo("Batch preview complete", Fields{"reviewed": 2})
	entry := decodeLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 2, entry["reviewed"])
}

func TestSetupLogger_UnknownFormat(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	err := SetupLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
