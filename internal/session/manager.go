// Package session owns the lifecycle of the single active recording:
// start/pause/resume/stop, elapsed-time accounting, side-channel accumulation,
// and exclusivity enforcement.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/audit"
	"github.com/recvault/recvault/internal/manifest"
	"github.com/recvault/recvault/pkg/clock"
	"github.com/recvault/recvault/pkg/config"
	"github.com/recvault/recvault/pkg/errclass"
	"github.com/recvault/recvault/pkg/logging"
	"github.com/recvault/recvault/pkg/model"
	"github.com/recvault/recvault/pkg/webhook"
)

// ManagerConfig carries optional collaborators. Zero values are usable:
// retention falls back to the config default, audit and hooks are skipped
// when nil.
type ManagerConfig struct {
	RetentionDays int
	Audit         *audit.FileAppender
	Hooks         *webhook.Client
	Logger        *logging.Logger
}

// Manager is the session state machine. All mutation of the active session is
// serialized through one mutex, so chunk appends preserve write order and
// stop observes a consistent final snapshot of all accumulators.
type Manager struct {
	mu            sync.Mutex
	store         *artifact.Store
	clk           clock.Clock
	log           *logging.Logger
	auditLog      *audit.FileAppender
	hooks         *webhook.Client
	retentionDays int
	lock          *instanceLock

	cur *active // nil when idle
}

// active is the in-memory state of the one running session.
type active struct {
	meta     *model.RecordingMetadata
	folder   string
	path     string
	pausedAt time.Time     // zero while recording
	paused   time.Duration // cumulative paused time, grown on resume
	frozen   time.Duration // duration frozen at pause instant
	timeline []model.TimelineEvent
	chat     []model.ChatMessage
	consent  []model.ConsentRecord
}

// duration applies the frozen-during-pause rule: while paused the value
// captured at pause time is reported; otherwise now - start - paused.
func (a *active) duration(now time.Time) time.Duration {
	if !a.pausedAt.IsZero() {
		return a.frozen
	}
	return now.Sub(a.meta.CreatedAt) - a.paused
}

// NewManager creates a session manager over the given artifact store.
func NewManager(store *artifact.Store, clk clock.Clock, cfg ManagerConfig) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Global()
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = config.DefaultRetentionDays
	}
	return &Manager{
		store:         store,
		clk:           clk,
		log:           cfg.Logger.WithFields(map[string]any{"component": "session"}),
		auditLog:      cfg.Audit,
		hooks:         cfg.Hooks,
		retentionDays: cfg.RetentionDays,
		lock:          newInstanceLock(store.Root()),
	}
}

// StartOptions are the caller-supplied identifiers and overrides for a new
// session. Identifiers are opaque; this subsystem does not validate them
// against the relational store.
type StartOptions struct {
	SessionID     string
	CohortID      string
	WeekNumber    int
	DayNumber     int
	SessionNumber int
	// Settings overrides the defaults when non-nil. Callers supply the
	// complete set of toggles; nil means DefaultSettings.
	Settings *model.Settings
	// RetentionDays overrides the manager default when positive.
	RetentionDays int
}

// Start begins a new recording. Fails with ErrAlreadyActive while a session
// is recording or paused. The check-and-set of the active slot is atomic
// under the manager mutex.
func (m *Manager) Start(opts StartOptions) (*model.RecordingMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		return nil, errclass.ErrAlreadyActive.WithMessagef("session %s is %s", m.cur.meta.SessionID, m.cur.meta.Status)
	}

	now := m.clk.Now()
	folder := m.pickFolderName(now, opts.WeekNumber, opts.SessionNumber)

	if err := m.lock.acquire(opts.SessionID); err != nil {
		return nil, err
	}

	path, err := m.store.CreateFolder(folder)
	if err != nil {
		m.lock.release()
		return nil, err
	}

	settings := model.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	retentionDays := m.retentionDays
	if opts.RetentionDays > 0 {
		retentionDays = opts.RetentionDays
	}

	meta := &model.RecordingMetadata{
		SessionID:           opts.SessionID,
		CohortID:            opts.CohortID,
		WeekNumber:          opts.WeekNumber,
		DayNumber:           opts.DayNumber,
		SessionNumber:       opts.SessionNumber,
		Settings:            settings,
		CreatedAt:           now,
		FileSizes:           make(map[string]int64),
		RetentionExpiryDate: now.Add(time.Duration(retentionDays) * 24 * time.Hour),
		Status:              model.StatusRecording,
	}

	cur := &active{meta: meta, folder: folder, path: path}
	cur.timeline = append(cur.timeline, model.TimelineEvent{
		Type:      model.EventSessionStart,
		Timestamp: now,
		Details:   map[string]any{"sessionId": opts.SessionID},
	})

	if err := m.store.WriteMetadata(folder, meta); err != nil {
		m.lock.release()
		return nil, fmt.Errorf("persist initial metadata: %w", err)
	}

	m.cur = cur
	m.log.Info("recording started", map[string]any{"folder": folder, "sessionId": opts.SessionID})
	m.appendAudit(model.EventTypeRecordingStart, folder, map[string]any{"sessionId": opts.SessionID})
	m.notify(webhook.Event{Event: webhook.EventRecordingStarted, Folder: folder, SessionID: opts.SessionID})

	out := *meta
	return &out, nil
}

// Pause suspends chunk capture and freezes the reported duration.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return errclass.ErrNotRecording.WithMessage("no active session")
	}
	if !m.cur.pausedAt.IsZero() {
		return errclass.ErrAlreadyPaused.WithMessage("session is already paused")
	}

	now := m.clk.Now()
	m.cur.frozen = m.cur.duration(now)
	m.cur.pausedAt = now
	m.cur.meta.Status = model.StatusPaused
	m.cur.timeline = append(m.cur.timeline, model.TimelineEvent{
		Type:      model.EventRecordingPaused,
		Timestamp: now,
	})

	if err := m.store.WriteMetadata(m.cur.folder, m.cur.meta); err != nil {
		return fmt.Errorf("persist pause: %w", err)
	}
	m.log.Info("recording paused", map[string]any{"folder": m.cur.folder})
	m.appendAudit(model.EventTypeRecordingPause, m.cur.folder, nil)
	return nil
}

// Resume restarts capture. The elapsed pause interval is accumulated into the
// cumulative paused duration so later duration math stays exact.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return errclass.ErrNotRecording.WithMessage("no active session")
	}
	if m.cur.pausedAt.IsZero() {
		return errclass.ErrNotPaused.WithMessage("session is not paused")
	}

	now := m.clk.Now()
	m.cur.paused += now.Sub(m.cur.pausedAt)
	m.cur.pausedAt = time.Time{}
	m.cur.meta.Status = model.StatusRecording
	m.cur.timeline = append(m.cur.timeline, model.TimelineEvent{
		Type:      model.EventRecordingResumed,
		Timestamp: now,
	})

	if err := m.store.WriteMetadata(m.cur.folder, m.cur.meta); err != nil {
		return fmt.Errorf("persist resume: %w", err)
	}
	m.log.Info("recording resumed", map[string]any{"folder": m.cur.folder})
	m.appendAudit(model.EventTypeRecordingResume, m.cur.folder, nil)
	return nil
}

// Stop ends the session: flushes all accumulators and final metadata, seals
// the folder, clears the active slot, and returns the folder path. No event
// can be appended once the flush begins because the mutex is held throughout.
func (m *Manager) Stop() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return "", errclass.ErrNotActive.WithMessage("no active session")
	}

	cur := m.cur
	now := m.clk.Now()

	// A trailing pause interval counts as paused time.
	if !cur.pausedAt.IsZero() {
		cur.paused += now.Sub(cur.pausedAt)
		cur.pausedAt = time.Time{}
	}
	final := now.Sub(cur.meta.CreatedAt) - cur.paused

	cur.timeline = append(cur.timeline, model.TimelineEvent{
		Type:      model.EventSessionEnd,
		Timestamp: now,
		Details:   map[string]any{"duration": final.Seconds()},
	})

	if n, err := m.store.FlushChat(cur.folder, cur.chat); err != nil {
		return "", fmt.Errorf("flush chat: %w", err)
	} else if n > 0 {
		cur.meta.FileSizes[artifact.ChatFile] = n
	}
	if n, err := m.store.FlushTimeline(cur.folder, cur.timeline); err != nil {
		return "", fmt.Errorf("flush timeline: %w", err)
	} else if n > 0 {
		cur.meta.FileSizes[artifact.TimelineFile] = n
	}
	if n, err := m.store.FlushConsent(cur.folder, cur.consent); err != nil {
		return "", fmt.Errorf("flush consent: %w", err)
	} else if n > 0 {
		cur.meta.FileSizes[artifact.ConsentFile] = n
	}
	if n, err := m.store.MediaSize(cur.folder); err != nil {
		return "", fmt.Errorf("stat media: %w", err)
	} else if n > 0 {
		cur.meta.FileSizes[artifact.MediaFile] = n
	}

	ended := now
	cur.meta.EndedAt = &ended
	cur.meta.Duration = final.Seconds()
	cur.meta.Status = model.StatusCompleted

	if err := m.store.WriteMetadata(cur.folder, cur.meta); err != nil {
		return "", fmt.Errorf("persist final metadata: %w", err)
	}
	if err := manifest.Seal(cur.path); err != nil {
		return "", fmt.Errorf("seal recording: %w", err)
	}

	m.cur = nil
	m.lock.release()

	m.log.Info("recording completed", map[string]any{
		"folder":   cur.folder,
		"duration": final.Seconds(),
	})
	m.appendAudit(model.EventTypeRecordingStop, cur.folder, map[string]any{"duration": final.Seconds()})
	m.notify(webhook.Event{
		Event:     webhook.EventRecordingCompleted,
		Folder:    cur.folder,
		SessionID: cur.meta.SessionID,
	})

	return cur.path, nil
}

// AddMarker appends a timestamped bookmark. A nil marker with nil error is
// returned when no session is active.
func (m *Manager) AddMarker(label, createdBy string) (*model.Marker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return nil, nil
	}

	now := m.clk.Now()
	marker := model.Marker{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedBy: createdBy,
		Timestamp: now,
		Offset:    m.cur.duration(now).Seconds(),
	}
	m.cur.meta.Markers = append(m.cur.meta.Markers, marker)
	m.cur.timeline = append(m.cur.timeline, model.TimelineEvent{
		Type:      model.EventMarkerAdded,
		Timestamp: now,
		Details:   map[string]any{"markerId": marker.ID, "label": label},
	})
	return &marker, nil
}

// AddChatMessage appends a chat message when chat capture is enabled.
// Messages are silently dropped when idle or when the toggle is off.
func (m *Manager) AddChatMessage(msg model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil || !m.cur.meta.Settings.RecordChat {
		return nil
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.clk.Now()
	}
	m.cur.chat = append(m.cur.chat, msg)
	return nil
}

// AddTimelineEvent appends an event when a session is active; dropped if idle.
func (m *Manager) AddTimelineEvent(evt model.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = m.clk.Now()
	}
	m.cur.timeline = append(m.cur.timeline, evt)
	return nil
}

// RecordConsent appends a consent record and updates the summary counters.
// acknowledged + notAcknowledged == total holds after every call.
func (m *Manager) RecordConsent(rec model.ConsentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return nil
	}

	now := m.clk.Now()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	m.cur.consent = append(m.cur.consent, rec)

	summary := &m.cur.meta.ConsentSummary
	summary.Total++
	eventType := model.EventConsentDeclined
	if rec.Acknowledged {
		summary.Acknowledged++
		eventType = model.EventConsentAcknowledged
	} else {
		summary.NotAcknowledged++
	}

	m.cur.timeline = append(m.cur.timeline, model.TimelineEvent{
		Type:      eventType,
		Timestamp: now,
		Details:   map[string]any{"participantId": rec.ParticipantID},
	})
	return nil
}

// RecordAttendanceSnapshot writes a standalone attendance file named by kind,
// only when attendance capture is enabled. The write is a side effect
// independent of the final flush.
func (m *Manager) RecordAttendanceSnapshot(kind model.AttendanceKind, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil || !m.cur.meta.Settings.RecordAttendance {
		return nil
	}

	n, err := m.store.WriteAttendance(m.cur.folder, kind, data)
	if err != nil {
		return err
	}
	name := artifact.AttendanceStartFile
	if kind == model.AttendanceEnd {
		name = artifact.AttendanceEndFile
	}
	m.cur.meta.FileSizes[name] = n

	m.cur.timeline = append(m.cur.timeline, model.TimelineEvent{
		Type:      model.EventAttendanceCaptured,
		Timestamp: m.clk.Now(),
		Details:   map[string]any{"kind": string(kind)},
	})
	return nil
}

// SaveChunk appends raw media bytes. Chunks arriving while idle or paused are
// dropped, not buffered.
func (m *Manager) SaveChunk(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil || !m.cur.pausedAt.IsZero() {
		return nil
	}
	return m.store.AppendChunk(m.cur.folder, b)
}

// Status is the pure query result describing the current slot.
type Status struct {
	IsRecording bool    `json:"isRecording"`
	IsPaused    bool    `json:"isPaused"`
	SessionID   string  `json:"sessionId,omitempty"`
	Duration    float64 `json:"duration,omitempty"` // seconds
	FolderPath  string  `json:"folderPath,omitempty"`
}

// Status reports whether a session is active and, if so, its identity, its
// frozen-or-live duration, and the folder path. No side effects.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return Status{}
	}
	return Status{
		IsRecording: true,
		IsPaused:    !m.cur.pausedAt.IsZero(),
		SessionID:   m.cur.meta.SessionID,
		Duration:    m.cur.duration(m.clk.Now()).Seconds(),
		FolderPath:  m.cur.path,
	}
}

// pickFolderName derives the folder from the date plus zero-padded week and
// session numbers, suffixing -2, -3, ... when a same-day collision exists.
func (m *Manager) pickFolderName(now time.Time, week, sessionNum int) string {
	base := fmt.Sprintf("%s_week-%02d_session-%03d", now.Format("2006-01-02"), week, sessionNum)
	name := base
	for i := 2; m.store.FolderExists(name); i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	return name
}

func (m *Manager) appendAudit(eventType model.AuditEventType, folder string, details map[string]any) {
	if m.auditLog == nil {
		return
	}
	if err := m.auditLog.Append(eventType, folder, details); err != nil {
		m.log.ErrorErr("audit append failed", err, map[string]any{"folder": folder})
	}
}

func (m *Manager) notify(evt webhook.Event) {
	if m.hooks == nil {
		return
	}
	if err := m.hooks.Send(evt, true); err != nil {
		m.log.ErrorErr("webhook send failed", err)
	}
}
