package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/session"
	"github.com/recvault/recvault/pkg/clock"
	"github.com/recvault/recvault/pkg/recvault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func startSession(t *testing.T) (*recvault.Client, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(t0)
	c, err := recvault.Open(t.TempDir(), recvault.Options{Clock: fake})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, err = c.StartRecording(session.StartOptions{
		SessionID:     "s1",
		WeekNumber:    1,
		SessionNumber: 1,
	})
	require.NoError(t, err)
	return c, fake
}

func TestRecordLoop_StopEndsLoop(t *testing.T) {
	c, _ := startSession(t)

	in := strings.NewReader("chunk hello\nstop\nchunk never\n")
	var out bytes.Buffer
	require.NoError(t, runRecordLoop(c, in, &out))

	path, err := c.StopRecording()
	require.NoError(t, err)

	media, err := os.ReadFile(filepath.Join(path, artifact.MediaFile))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(media))
}

func TestRecordLoop_PauseResumeAndMarker(t *testing.T) {
	c, fake := startSession(t)

	var out bytes.Buffer
	require.NoError(t, runRecordLoop(c, strings.NewReader("pause\n"), &out))
	fake.Advance(10 * time.Second)
	require.NoError(t, runRecordLoop(c, strings.NewReader("resume\nmarker key moment\n"), &out))

	assert.Contains(t, out.String(), "marker ")

	st := c.Status()
	assert.True(t, st.IsRecording)
	assert.False(t, st.IsPaused)
	assert.Equal(t, 0.0, st.Duration)
}

func TestRecordLoop_ChatConsentAttendance(t *testing.T) {
	c, _ := startSession(t)

	in := strings.NewReader(strings.Join([]string{
		"chat alice hello there",
		"consent p1 ack Alice",
		"consent p2 decline",
		`attendance start {"present":["alice"]}`,
		"stop",
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, runRecordLoop(c, in, &out))

	path, err := c.StopRecording()
	require.NoError(t, err)
	folder := filepath.Base(path)

	det, err := c.RecordingDetails(folder)
	require.NoError(t, err)
	require.Len(t, det.Chat, 1)
	assert.Equal(t, "alice", det.Chat[0].Sender)
	assert.Equal(t, "hello there", det.Chat[0].Message)
	require.Len(t, det.Consent, 2)
	assert.Equal(t, 1, det.Meta.ConsentSummary.Acknowledged)
	assert.Equal(t, 1, det.Meta.ConsentSummary.NotAcknowledged)

	attendance, err := os.ReadFile(filepath.Join(path, artifact.AttendanceStartFile))
	require.NoError(t, err)
	assert.Contains(t, string(attendance), "alice")
}

func TestRecordLoop_StatusCommand(t *testing.T) {
	c, fake := startSession(t)
	fake.Advance(3 * time.Second)

	var out bytes.Buffer
	require.NoError(t, runRecordLoop(c, strings.NewReader("status\nstop\n"), &out))
	assert.Contains(t, out.String(), `"isRecording":true`)
	assert.Contains(t, out.String(), `"sessionId":"s1"`)
}

func TestRecordLoop_RecoverableErrorsKeepLoopAlive(t *testing.T) {
	c, _ := startSession(t)

	in := strings.NewReader(strings.Join([]string{
		"resume",      // not paused
		"bogus thing", // unknown command
		"marker",      // missing label
		"chunk ok",
		"stop",
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, runRecordLoop(c, in, &out))

	assert.Contains(t, out.String(), "E_NOT_PAUSED")
	assert.Contains(t, out.String(), "unknown command")

	path, err := c.StopRecording()
	require.NoError(t, err)
	media, err := os.ReadFile(filepath.Join(path, artifact.MediaFile))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(media))
}
