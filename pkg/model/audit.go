package model

import "time"

// AuditEventType identifies the type of auditable recorder operation.
type AuditEventType string

const (
	EventTypeRecordingStart  AuditEventType = "recording_start"
	EventTypeRecordingPause  AuditEventType = "recording_pause"
	EventTypeRecordingResume AuditEventType = "recording_resume"
	EventTypeRecordingStop   AuditEventType = "recording_stop"
	EventTypeRecordingDelete AuditEventType = "recording_delete"
	EventTypePurgeRun        AuditEventType = "purge_run"
)

// AuditRecord is a single line in the audit log (JSONL format). Records form
// a hash chain: RecordHash covers the record with PrevHash included, so any
// edit or removal breaks every later line.
type AuditRecord struct {
	Timestamp  time.Time      `json:"timestamp"`
	EventType  AuditEventType `json:"event_type"`
	Folder     string         `json:"folder,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	PrevHash   HashValue      `json:"prev_hash"`
	RecordHash HashValue      `json:"record_hash"`
}
