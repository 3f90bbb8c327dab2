package audit_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recvault/recvault/internal/audit"
	"github.com/recvault/recvault/pkg/errclass"
	"github.com/recvault/recvault/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppender(t *testing.T) (*audit.FileAppender, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), audit.FileName)
	return audit.NewFileAppender(path), path
}

func TestAppend_ChainsRecords(t *testing.T) {
	a, _ := newAppender(t)

	require.NoError(t, a.Append(model.EventTypeRecordingStart, "f1", map[string]any{"sessionId": "s1"}))
	require.NoError(t, a.Append(model.EventTypeRecordingStop, "f1", nil))

	records, err := a.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Empty(t, records[0].PrevHash, "first record chains from empty hash")
	assert.Equal(t, records[0].RecordHash, records[1].PrevHash)
	assert.NotEmpty(t, records[1].RecordHash)
}

func TestVerifyChain_ValidLog(t *testing.T) {
	a, _ := newAppender(t)
	require.NoError(t, a.Append(model.EventTypeRecordingStart, "f1", nil))
	require.NoError(t, a.Append(model.EventTypeRecordingPause, "f1", nil))
	require.NoError(t, a.Append(model.EventTypeRecordingStop, "f1", nil))

	assert.NoError(t, a.VerifyChain())
}

func TestVerifyChain_EmptyLogIsValid(t *testing.T) {
	a, _ := newAppender(t)
	assert.NoError(t, a.VerifyChain())
}

func TestVerifyChain_DetectsTamperedLine(t *testing.T) {
	a, path := newAppender(t)
	require.NoError(t, a.Append(model.EventTypeRecordingStart, "f1", nil))
	require.NoError(t, a.Append(model.EventTypeRecordingStop, "f1", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "recording_start", "recording_pause", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	err = a.VerifyChain()
	assert.ErrorIs(t, err, errclass.ErrAuditChainBroken)
}

func TestVerifyChain_DetectsRemovedLine(t *testing.T) {
	a, path := newAppender(t)
	require.NoError(t, a.Append(model.EventTypeRecordingStart, "f1", nil))
	require.NoError(t, a.Append(model.EventTypeRecordingStop, "f1", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	require.NoError(t, os.WriteFile(path, []byte(lines[1]), 0644))

	err = a.VerifyChain()
	assert.ErrorIs(t, err, errclass.ErrAuditChainBroken)
}

func TestReadAll_MissingLogIsEmpty(t *testing.T) {
	a, _ := newAppender(t)
	records, err := a.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}
