// Package catalog lists completed recordings, loads their side-channel data
// together with a fresh integrity result, and enforces the retention policy.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/audit"
	"github.com/recvault/recvault/internal/manifest"
	"github.com/recvault/recvault/pkg/clock"
	"github.com/recvault/recvault/pkg/errclass"
	"github.com/recvault/recvault/pkg/logging"
	"github.com/recvault/recvault/pkg/model"
	"github.com/recvault/recvault/pkg/pathutil"
	"github.com/recvault/recvault/pkg/webhook"
)

// Entry is one cataloged recording, tagged with its folder name.
type Entry struct {
	Folder string                   `json:"folder"`
	Meta   *model.RecordingMetadata `json:"metadata"`
}

// Details bundles a recording's metadata, side-channel logs, and a fresh
// integrity result so a caller never sees integrity status stale relative to
// the data it read.
type Details struct {
	Folder    string                   `json:"folder"`
	Meta      *model.RecordingMetadata `json:"metadata"`
	Chat      []model.ChatMessage      `json:"chat,omitempty"`
	Timeline  []model.TimelineEvent    `json:"timeline,omitempty"`
	Consent   []model.ConsentRecord    `json:"consent,omitempty"`
	Integrity *manifest.Result         `json:"integrity"`
}

// PurgeReport summarizes a purge run. One folder's failure never aborts the
// batch; errors are collected per folder.
type PurgeReport struct {
	Purged []string          `json:"purged"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Catalog operates on completed recording folders, independent of any active
// session.
type Catalog struct {
	store    *artifact.Store
	clk      clock.Clock
	log      *logging.Logger
	auditLog *audit.FileAppender
	hooks    *webhook.Client
}

// Config carries optional collaborators for the catalog.
type Config struct {
	Audit  *audit.FileAppender
	Hooks  *webhook.Client
	Logger *logging.Logger
}

// New creates a catalog over the given store.
func New(store *artifact.Store, clk clock.Clock, cfg Config) *Catalog {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Global()
	}
	return &Catalog{
		store:    store,
		clk:      clk,
		log:      cfg.Logger.WithFields(map[string]any{"component": "catalog"}),
		auditLog: cfg.Audit,
		hooks:    cfg.Hooks,
	}
}

// List scans the recordings root for subfolders with a metadata file, sorted
// by creation time (newest first). Folders with unparseable metadata are
// skipped so corruption in one recording never blocks listing the rest.
func (c *Catalog) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.store.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recordings root: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		meta, err := c.store.ReadMetadata(de.Name())
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Folder: de.Name(), Meta: meta})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Meta.CreatedAt.After(entries[j].Meta.CreatedAt)
	})
	return entries, nil
}

// Details loads a recording's metadata, chat log, timeline, and consent
// records (absent files mean empty lists) plus a fresh verify result.
func (c *Catalog) Details(folder string) (*Details, error) {
	if err := pathutil.ValidateFolderName(folder); err != nil {
		return nil, err
	}

	meta, err := c.store.ReadMetadata(folder)
	if err != nil {
		return nil, err
	}

	chat, err := c.store.ReadChat(folder)
	if err != nil {
		return nil, err
	}
	timeline, err := c.store.ReadTimeline(folder)
	if err != nil {
		return nil, err
	}
	consent, err := c.store.ReadConsent(folder)
	if err != nil {
		return nil, err
	}
	integrity, err := manifest.Verify(c.store.FolderPath(folder))
	if err != nil {
		return nil, err
	}

	return &Details{
		Folder:    folder,
		Meta:      meta,
		Chat:      chat,
		Timeline:  timeline,
		Consent:   consent,
		Integrity: integrity,
	}, nil
}

// Verify recomputes the manifest result for a completed folder.
func (c *Catalog) Verify(folder string) (*manifest.Result, error) {
	if err := pathutil.ValidateFolderName(folder); err != nil {
		return nil, err
	}
	if !c.store.FolderExists(folder) {
		return nil, errclass.ErrRecordingNotFound.WithMessagef("%s", folder)
	}

	result, err := manifest.Verify(c.store.FolderPath(folder))
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		c.log.Warn("integrity check failed", map[string]any{"folder": folder})
		c.notify(webhook.Event{Event: webhook.EventVerifyFailed, Folder: folder})
	}
	return result, nil
}

// PurgeExpired deletes every recording whose retention expiry is strictly
// before now. Successes and per-folder errors are collected separately.
func (c *Catalog) PurgeExpired() (*PurgeReport, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}

	now := c.clk.Now()
	report := &PurgeReport{Errors: make(map[string]string)}
	for _, entry := range entries {
		if !entry.Meta.Expired(now) {
			continue
		}
		if err := c.store.Delete(entry.Folder); err != nil {
			report.Errors[entry.Folder] = err.Error()
			continue
		}
		report.Purged = append(report.Purged, entry.Folder)
		c.notify(webhook.Event{Event: webhook.EventRecordingPurged, Folder: entry.Folder})
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	if len(report.Purged) > 0 || report.Errors != nil {
		c.log.Info("purge run finished", map[string]any{
			"purged": len(report.Purged),
			"failed": len(report.Errors),
		})
		c.appendAudit(model.EventTypePurgeRun, "", map[string]any{
			"purged": len(report.Purged),
			"failed": len(report.Errors),
		})
	}
	return report, nil
}

// Delete removes a single recording folder. Not-found is a recoverable
// ErrRecordingNotFound, distinct from the automatic purge.
func (c *Catalog) Delete(folder string) error {
	if err := pathutil.ValidateFolderName(folder); err != nil {
		return err
	}
	if err := c.store.Delete(folder); err != nil {
		return err
	}
	c.log.Info("recording deleted", map[string]any{"folder": folder})
	c.appendAudit(model.EventTypeRecordingDelete, folder, nil)
	c.notify(webhook.Event{Event: webhook.EventRecordingDeleted, Folder: folder})
	return nil
}

func (c *Catalog) appendAudit(eventType model.AuditEventType, folder string, details map[string]any) {
	if c.auditLog == nil {
		return
	}
	if err := c.auditLog.Append(eventType, folder, details); err != nil {
		c.log.ErrorErr("audit append failed", err, map[string]any{"folder": folder})
	}
}

func (c *Catalog) notify(evt webhook.Event) {
	if c.hooks == nil {
		return
	}
	if err := c.hooks.Send(evt, true); err != nil {
		c.log.ErrorErr("webhook send failed", err)
	}
}
