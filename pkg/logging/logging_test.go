package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/recvault/recvault/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level logging.Level) (*logging.Logger, *bytes.Buffer) {
	l := logging.NewLogger(level)
	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_LevelGating(t *testing.T) {
	l, buf := newBufferedLogger(logging.LevelWarn)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"warn"`)
	assert.Contains(t, lines[1], `"level":"error"`)
}

func TestLogger_EntryShape(t *testing.T) {
	l, buf := newBufferedLogger(logging.LevelInfo)
	l.Info("recording started", map[string]any{"folder": "2026-03-01_week-02_session-001"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, logging.LevelInfo, entry.Level)
	assert.Equal(t, "recording started", entry.Message)
	assert.Equal(t, "2026-03-01_week-02_session-001", entry.Fields["folder"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_WithFieldsCarriesBaseFields(t *testing.T) {
	l, buf := newBufferedLogger(logging.LevelInfo)
	child := l.WithFields(map[string]any{"component": "session"})
	child.SetOutput(buf)

	child.Info("paused", map[string]any{"sessionId": "s1"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session", entry.Fields["component"])
	assert.Equal(t, "s1", entry.Fields["sessionId"])
}

func TestLogger_ErrorErr(t *testing.T) {
	l, buf := newBufferedLogger(logging.LevelInfo)
	l.ErrorErr("flush failed", errors.New("disk full"))

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry.Fields["error"])
}

func TestLogger_NoFieldsOmitted(t *testing.T) {
	l, buf := newBufferedLogger(logging.LevelInfo)
	l.Info("plain")

	assert.NotContains(t, buf.String(), `"fields"`)
}
