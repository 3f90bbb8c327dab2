package model

import "time"

// TimelineEventType identifies a structured timeline event.
type TimelineEventType string

const (
	EventSessionStart        TimelineEventType = "session_start"
	EventSessionEnd          TimelineEventType = "session_end"
	EventRecordingPaused     TimelineEventType = "recording_paused"
	EventRecordingResumed    TimelineEventType = "recording_resumed"
	EventMarkerAdded         TimelineEventType = "marker_added"
	EventConsentAcknowledged TimelineEventType = "consent_acknowledged"
	EventConsentDeclined     TimelineEventType = "consent_declined"
	EventAttendanceCaptured  TimelineEventType = "attendance_captured"
)

// TimelineEvent is one line in timeline_events.jsonl. Events are append-only
// and carry their own timestamp, independent of the session clock.
type TimelineEvent struct {
	Type      TimelineEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]any    `json:"details,omitempty"`
}

// ChatMessage is one line in transcript_chat.jsonl.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsentRecord is a per-participant acknowledgement or decline, stored as an
// element of the consent_records.json array. Records are never mutated once
// added.
type ConsentRecord struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName,omitempty"`
	Acknowledged    bool      `json:"acknowledged"`
	Timestamp       time.Time `json:"timestamp"`
}
