package model

import "time"

// Status is the lifecycle state persisted in metadata.json.
type Status string

const (
	StatusRecording Status = "recording"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
)

// Active reports whether the status describes a live, unfinished session.
func (s Status) Active() bool {
	return s == StatusRecording || s == StatusPaused
}

// HashValue is a hex-encoded SHA-256 digest.
type HashValue string

// Settings is the fixed set of capture toggles for a session.
// Trainee audio and video default to off; everything else defaults to on.
type Settings struct {
	RecordScreen       bool `json:"recordScreen"`
	RecordTrainerAudio bool `json:"recordTrainerAudio"`
	RecordSystemAudio  bool `json:"recordSystemAudio"`
	RecordChat         bool `json:"recordChat"`
	RecordAttendance   bool `json:"recordAttendance"`
	RecordTimeline     bool `json:"recordTimeline"`
	RecordTraineeAudio bool `json:"recordTraineeAudio"`
	RecordTraineeVideo bool `json:"recordTraineeVideo"`
}

// DefaultSettings returns the privacy-by-default capture settings.
func DefaultSettings() Settings {
	return Settings{
		RecordScreen:       true,
		RecordTrainerAudio: true,
		RecordSystemAudio:  true,
		RecordChat:         true,
		RecordAttendance:   true,
		RecordTimeline:     true,
		RecordTraineeAudio: false,
		RecordTraineeVideo: false,
	}
}

// Marker is a user-created bookmark within a recording. Offset is seconds
// from session start, computed with the same frozen-during-pause rule as the
// session duration.
type Marker struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Offset    float64   `json:"offset"`
}

// ConsentSummary aggregates consent records. The invariant
// Acknowledged + NotAcknowledged == Total holds after every update.
type ConsentSummary struct {
	Acknowledged    int `json:"acknowledged"`
	NotAcknowledged int `json:"notAcknowledged"`
	Total           int `json:"total"`
}

// RecordingMetadata is the durable projection of a session, written to
// metadata.json. JSON field names are a compatibility surface consumed by
// downstream report generation; do not rename them.
type RecordingMetadata struct {
	SessionID           string           `json:"sessionId"`
	CohortID            string           `json:"cohortId,omitempty"`
	WeekNumber          int              `json:"weekNumber"`
	DayNumber           int              `json:"dayNumber"`
	SessionNumber       int              `json:"sessionNumber"`
	Settings            Settings         `json:"settings"`
	CreatedAt           time.Time        `json:"createdAt"`
	EndedAt             *time.Time       `json:"endedAt,omitempty"`
	Duration            float64          `json:"duration"` // seconds
	FileSizes           map[string]int64 `json:"fileSizes,omitempty"`
	ConsentSummary      ConsentSummary   `json:"consentSummary"`
	RetentionExpiryDate time.Time        `json:"retentionExpiryDate"`
	Status              Status           `json:"status"`
	Markers             []Marker         `json:"markers,omitempty"`
}

// Expired reports whether the recording's retention window has passed.
func (m *RecordingMetadata) Expired(now time.Time) bool {
	return m.RetentionExpiryDate.Before(now)
}

// AttendanceKind selects which attendance snapshot file is written.
type AttendanceKind string

const (
	AttendanceStart AttendanceKind = "start"
	AttendanceEnd   AttendanceKind = "end"
)
