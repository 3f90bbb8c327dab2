package catalog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/catalog"
	"github.com/recvault/recvault/internal/manifest"
	"github.com/recvault/recvault/internal/session"
	"github.com/recvault/recvault/pkg/clock"
	"github.com/recvault/recvault/pkg/errclass"
	"github.com/recvault/recvault/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T) (*catalog.Catalog, *artifact.Store, *clock.Fake) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	fake := clock.NewFake(t0)
	return catalog.New(store, fake, catalog.Config{}), store, fake
}

// record produces a completed, sealed recording via the real state machine.
func record(t *testing.T, store *artifact.Store, fake *clock.Fake, sessionID string, sessionNum int, retentionDays int) string {
	t.Helper()
	m := session.NewManager(store, fake, session.ManagerConfig{})
	_, err := m.Start(session.StartOptions{
		SessionID:     sessionID,
		WeekNumber:    2,
		SessionNumber: sessionNum,
		RetentionDays: retentionDays,
	})
	require.NoError(t, err)
	require.NoError(t, m.SaveChunk([]byte("media")))
	fake.Advance(time.Minute)
	path, err := m.Stop()
	require.NoError(t, err)
	return filepath.Base(path)
}

func TestList_EmptyRoot(t *testing.T) {
	c, _, _ := newCatalog(t)
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_SortedNewestFirst(t *testing.T) {
	c, store, fake := newCatalog(t)

	first := record(t, store, fake, "s1", 1, 0)
	fake.Advance(time.Hour)
	second := record(t, store, fake, "s2", 2, 0)

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].Folder)
	assert.Equal(t, first, entries[1].Folder)
}

func TestList_SkipsCorruptMetadata(t *testing.T) {
	c, store, fake := newCatalog(t)
	good := record(t, store, fake, "s1", 1, 0)

	// A folder with unparseable metadata and one with no metadata at all.
	corrupt := filepath.Join(store.Root(), "2026-03-01_week-02_session-099")
	require.NoError(t, os.MkdirAll(corrupt, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, artifact.MetadataFile), []byte("{nope"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "orphan"), 0755))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, good, entries[0].Folder)
}

func TestDetails_BundlesDataWithIntegrity(t *testing.T) {
	c, store, fake := newCatalog(t)

	m := session.NewManager(store, fake, session.ManagerConfig{})
	_, err := m.Start(session.StartOptions{SessionID: "s1", WeekNumber: 2, SessionNumber: 1})
	require.NoError(t, err)
	require.NoError(t, m.AddChatMessage(model.ChatMessage{Sender: "a", Message: "hi"}))
	require.NoError(t, m.RecordConsent(model.ConsentRecord{ParticipantID: "p1", Acknowledged: true}))
	path, err := m.Stop()
	require.NoError(t, err)
	folder := filepath.Base(path)

	details, err := c.Details(folder)
	require.NoError(t, err)

	assert.Equal(t, folder, details.Folder)
	assert.Equal(t, model.StatusCompleted, details.Meta.Status)
	assert.Len(t, details.Chat, 1)
	assert.Len(t, details.Consent, 1)
	assert.NotEmpty(t, details.Timeline)
	require.NotNil(t, details.Integrity)
	assert.True(t, details.Integrity.Valid)
}

func TestDetails_MissingFolder(t *testing.T) {
	c, _, _ := newCatalog(t)
	_, err := c.Details("2026-03-01_week-02_session-001")
	assert.ErrorIs(t, err, errclass.ErrRecordingNotFound)
}

func TestVerify_DetectsTamper(t *testing.T) {
	c, store, fake := newCatalog(t)
	folder := record(t, store, fake, "s1", 1, 0)

	result, err := c.Verify(folder)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	mediaPath := filepath.Join(store.FolderPath(folder), artifact.MediaFile)
	require.NoError(t, os.WriteFile(mediaPath, []byte("XEDIA"), 0644))

	result, err = c.Verify(folder)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.False(t, result.Files[artifact.MediaFile])
}

func TestVerify_MissingManifestDistinctState(t *testing.T) {
	c, store, fake := newCatalog(t)
	folder := record(t, store, fake, "s1", 1, 0)
	require.NoError(t, os.Remove(filepath.Join(store.FolderPath(folder), manifest.Filename)))

	result, err := c.Verify(folder)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, map[string]bool{manifest.Filename: false}, result.Files)
}

func TestVerify_UnknownFolder(t *testing.T) {
	c, _, _ := newCatalog(t)
	_, err := c.Verify("2026-03-01_week-02_session-042")
	assert.ErrorIs(t, err, errclass.ErrRecordingNotFound)
}

func TestPurgeExpired_RemovesOnlyPastExpiry(t *testing.T) {
	c, store, fake := newCatalog(t)

	expired := record(t, store, fake, "s1", 1, 1)  // expires in 1 day
	fresh := record(t, store, fake, "s2", 2, 365)  // expires in a year

	fake.Advance(48 * time.Hour)

	report, err := c.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, []string{expired}, report.Purged)
	assert.Empty(t, report.Errors)

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh, entries[0].Folder)
}

func TestPurgeExpired_NothingExpired(t *testing.T) {
	c, store, fake := newCatalog(t)
	record(t, store, fake, "s1", 1, 365)

	report, err := c.PurgeExpired()
	require.NoError(t, err)
	assert.Empty(t, report.Purged)
	assert.Empty(t, report.Errors)
}

func TestDelete_ExplicitRemoval(t *testing.T) {
	c, store, fake := newCatalog(t)
	folder := record(t, store, fake, "s1", 1, 0)

	require.NoError(t, c.Delete(folder))
	assert.NoDirExists(t, store.FolderPath(folder))
}

func TestDelete_MissingIsRecoverable(t *testing.T) {
	c, _, _ := newCatalog(t)
	err := c.Delete("2026-03-01_week-02_session-042")
	assert.ErrorIs(t, err, errclass.ErrRecordingNotFound)
}

func TestDelete_RejectsUnsafeName(t *testing.T) {
	c, _, _ := newCatalog(t)
	err := c.Delete("../outside")
	assert.ErrorIs(t, err, errclass.ErrNameInvalid)
}
