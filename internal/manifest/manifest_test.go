package manifest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recvault/recvault/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFolder(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestSealThenVerify_RoundTrip(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"metadata.json":          `{"status":"completed"}`,
		"transcript_chat.jsonl":  "{}\n{}\n",
		"timeline_events.jsonl":  "{}\n",
		"recording.webm":         "binarybinary",
		"consent_records.json":   "[]",
		"attendance_start.json":  "{}",
	})

	require.NoError(t, manifest.Seal(dir))

	result, err := manifest.Verify(dir)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Len(t, result.Files, 6)
	for name, ok := range result.Files {
		assert.True(t, ok, name)
	}
}

func TestSeal_ExcludesManifestAndSortsByFilename(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"metadata.json":  "{}",
		"recording.webm": "chunk",
	})

	require.NoError(t, manifest.Seal(dir))

	data, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "  metadata.json"))
	assert.True(t, strings.HasSuffix(lines[1], "  recording.webm"))
	for _, line := range lines {
		assert.Len(t, line[:64], 64, "digest must be 64 hex chars")
	}
	assert.NotContains(t, string(data), manifest.Filename)
}

func TestSeal_Reseal(t *testing.T) {
	dir := writeFolder(t, map[string]string{"metadata.json": "{}"})
	require.NoError(t, manifest.Seal(dir))
	require.NoError(t, manifest.Seal(dir))

	result, err := manifest.Verify(dir)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestVerify_TamperDetection(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"metadata.json":  `{"status":"completed"}`,
		"recording.webm": "original",
	})
	require.NoError(t, manifest.Seal(dir))

	// Flip one byte in a sealed file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recording.webm"), []byte("originaX"), 0644))

	result, err := manifest.Verify(dir)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.Files["recording.webm"])
	assert.True(t, result.Files["metadata.json"], "untampered files stay valid")
}

func TestVerify_MissingFileFailSoft(t *testing.T) {
	dir := writeFolder(t, map[string]string{
		"metadata.json":  "{}",
		"recording.webm": "chunk",
	})
	require.NoError(t, manifest.Seal(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, "recording.webm")))

	result, err := manifest.Verify(dir)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.False(t, result.Files["recording.webm"])
	assert.True(t, result.Files["metadata.json"])
}

func TestVerify_MissingManifest(t *testing.T) {
	dir := writeFolder(t, map[string]string{"metadata.json": "{}"})

	result, err := manifest.Verify(dir)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, map[string]bool{manifest.Filename: false}, result.Files)
}

func TestVerify_CaseInsensitiveHex(t *testing.T) {
	dir := writeFolder(t, map[string]string{"metadata.json": "{}"})
	require.NoError(t, manifest.Seal(dir))

	data, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
	require.NoError(t, err)
	upper := strings.ToUpper(string(data[:64])) + string(data[64:])
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), []byte(upper), 0644))

	result, err := manifest.Verify(dir)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestVerify_MalformedLineInvalidates(t *testing.T) {
	dir := writeFolder(t, map[string]string{"metadata.json": "{}"})
	require.NoError(t, manifest.Seal(dir))

	f, err := os.OpenFile(filepath.Join(dir, manifest.Filename), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("not a manifest line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := manifest.Verify(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Files["metadata.json"], "well-formed entries still checked")
}
