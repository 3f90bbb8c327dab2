// Package recvault provides the high-level recording API over a recordings
// root. It is the embedding surface: construct one Client per root and call
// its lifecycle and catalog operations from there.
package recvault

import (
	"path/filepath"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/audit"
	"github.com/recvault/recvault/internal/catalog"
	"github.com/recvault/recvault/internal/doctor"
	"github.com/recvault/recvault/internal/manifest"
	"github.com/recvault/recvault/internal/session"
	"github.com/recvault/recvault/pkg/clock"
	"github.com/recvault/recvault/pkg/config"
	"github.com/recvault/recvault/pkg/logging"
	"github.com/recvault/recvault/pkg/model"
	"github.com/recvault/recvault/pkg/webhook"
)

// Client provides high-level recording operations on a recordings root.
type Client struct {
	root     string
	cfg      *config.Config
	log      *logging.Logger
	auditLog *audit.FileAppender
	hooks    *webhook.Client
	store    *artifact.Store
	manager  *session.Manager
	catalog  *catalog.Catalog
}

// Options configures Client construction. The zero value is usable: config
// is loaded from recvault.yaml under the root, and a real clock is used.
type Options struct {
	Config *config.Config // overrides the on-disk config when non-nil
	Clock  clock.Clock    // defaults to the system clock
	Logger *logging.Logger
}

// Open opens (creating if needed) a recordings root and wires up the
// recorder, catalog, audit log, and webhook dispatcher.
func Open(root string, opts Options) (*Client, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Load(abs)
		if err != nil {
			return nil, err
		}
	}

	log := opts.Logger
	if log == nil {
		log = logging.NewLogger(logging.Level(cfg.Logging.Level))
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	store, err := artifact.NewStore(abs)
	if err != nil {
		return nil, err
	}

	auditLog := audit.NewFileAppender(filepath.Join(abs, audit.FileName))
	hooks := webhook.NewClient(cfg.Webhooks.WebhookConfig())

	manager := session.NewManager(store, clk, session.ManagerConfig{
		RetentionDays: cfg.RetentionDays,
		Audit:         auditLog,
		Hooks:         hooks,
		Logger:        log,
	})
	cat := catalog.New(store, clk, catalog.Config{
		Audit:  auditLog,
		Hooks:  hooks,
		Logger: log,
	})

	return &Client{
		root:     abs,
		cfg:      cfg,
		log:      log,
		auditLog: auditLog,
		hooks:    hooks,
		store:    store,
		manager:  manager,
		catalog:  cat,
	}, nil
}

// Close drains pending webhook deliveries. An active session is left as-is;
// callers stop it explicitly before closing.
func (c *Client) Close() error {
	return c.hooks.Close()
}

// Root returns the absolute path of the recordings root.
func (c *Client) Root() string { return c.root }

// Config returns the effective configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// StartRecording begins a new session.
func (c *Client) StartRecording(opts session.StartOptions) (*model.RecordingMetadata, error) {
	return c.manager.Start(opts)
}

// PauseRecording pauses the active session.
func (c *Client) PauseRecording() error { return c.manager.Pause() }

// ResumeRecording resumes a paused session.
func (c *Client) ResumeRecording() error { return c.manager.Resume() }

// StopRecording finalizes the active session and returns its folder path.
func (c *Client) StopRecording() (string, error) { return c.manager.Stop() }

// Status reports the live recorder state.
func (c *Client) Status() session.Status { return c.manager.Status() }

// SaveChunk appends a media chunk to the active session. Dropped silently
// while paused or idle.
func (c *Client) SaveChunk(b []byte) error { return c.manager.SaveChunk(b) }

// AddMarker stamps a labeled marker at the current recording offset.
// Returns nil, nil when no session is active.
func (c *Client) AddMarker(label, createdBy string) (*model.Marker, error) {
	return c.manager.AddMarker(label, createdBy)
}

// AddChatMessage buffers a chat message for the active session.
func (c *Client) AddChatMessage(msg model.ChatMessage) error {
	return c.manager.AddChatMessage(msg)
}

// AddTimelineEvent buffers a timeline event for the active session.
func (c *Client) AddTimelineEvent(evt model.TimelineEvent) error {
	return c.manager.AddTimelineEvent(evt)
}

// RecordConsent buffers a consent record for the active session.
func (c *Client) RecordConsent(rec model.ConsentRecord) error {
	return c.manager.RecordConsent(rec)
}

// RecordAttendanceSnapshot writes an attendance snapshot file immediately.
func (c *Client) RecordAttendanceSnapshot(kind model.AttendanceKind, data any) error {
	return c.manager.RecordAttendanceSnapshot(kind, data)
}

// ListRecordings returns catalog entries sorted newest first.
func (c *Client) ListRecordings() ([]catalog.Entry, error) {
	return c.catalog.List()
}

// RecordingDetails returns the full detail bundle for one recording.
func (c *Client) RecordingDetails(folder string) (*catalog.Details, error) {
	return c.catalog.Details(folder)
}

// VerifyRecording re-hashes a recording's files against its manifest.
func (c *Client) VerifyRecording(folder string) (*manifest.Result, error) {
	return c.catalog.Verify(folder)
}

// DeleteRecording removes a recording folder.
func (c *Client) DeleteRecording(folder string) error {
	return c.catalog.Delete(folder)
}

// PurgeExpired deletes recordings whose retention expiry is in the past.
func (c *Client) PurgeExpired() (*catalog.PurgeReport, error) {
	return c.catalog.PurgeExpired()
}

// VerifyAuditChain checks the audit log's hash chain.
func (c *Client) VerifyAuditChain() error {
	return c.auditLog.VerifyChain()
}

// AuditRecords returns all parseable audit records.
func (c *Client) AuditRecords() ([]model.AuditRecord, error) {
	return c.auditLog.ReadAll()
}

// Doctor runs health checks over the recordings root.
func (c *Client) Doctor(strict bool) (*doctor.Result, error) {
	return doctor.NewDoctor(c.store).Check(strict)
}
