// Package artifact manages the on-disk folder for a recording: creation,
// append-only writes, whole-file reads, and deletion.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/recvault/recvault/pkg/errclass"
	"github.com/recvault/recvault/pkg/fsutil"
	"github.com/recvault/recvault/pkg/model"
	"github.com/recvault/recvault/pkg/pathutil"
)

// Artifact file names. These are part of the compatibility surface consumed
// by downstream tooling; do not rename them.
const (
	MetadataFile        = "metadata.json"
	ChatFile            = "transcript_chat.jsonl"
	TimelineFile        = "timeline_events.jsonl"
	ConsentFile         = "consent_records.json"
	AttendanceStartFile = "attendance_start.json"
	AttendanceEndFile   = "attendance_end.json"
	MediaFile           = "recording.webm"
)

// Store performs all file operations inside the recordings root.
type Store struct {
	root string
}

// NewStore creates a store rooted at the recordings directory. The root is
// created if absent.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create recordings root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the recordings root directory.
func (s *Store) Root() string { return s.root }

// FolderPath returns the absolute path of a recording folder.
func (s *Store) FolderPath(folder string) string {
	return filepath.Join(s.root, folder)
}

// CreateFolder creates a recording folder, including intermediate
// directories. Creation is idempotent.
func (s *Store) CreateFolder(folder string) (string, error) {
	path := s.FolderPath(folder)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create recording folder: %w", err)
	}
	return path, nil
}

// FolderExists reports whether the folder is already present.
func (s *Store) FolderExists(folder string) bool {
	info, err := os.Stat(s.FolderPath(folder))
	return err == nil && info.IsDir()
}

// AppendChunk appends raw media bytes to the folder's binary artifact. The
// file is opened in append mode per chunk; no chunk is ever rewritten.
func (s *Store) AppendChunk(folder string, b []byte) error {
	return fsutil.AppendBytes(filepath.Join(s.FolderPath(folder), MediaFile), b, 0644)
}

// MediaSize returns the current size of the binary artifact, or 0 when none
// has been written yet.
func (s *Store) MediaSize(folder string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.FolderPath(folder), MediaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat media artifact: %w", err)
	}
	return info.Size(), nil
}

// WriteMetadata (over)writes metadata.json in full. The write is atomic so a
// crash between operations leaves a file consistent with the last completed
// state transition.
func (s *Store) WriteMetadata(folder string, meta *model.RecordingMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := fsutil.AtomicWrite(filepath.Join(s.FolderPath(folder), MetadataFile), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads and parses metadata.json.
func (s *Store) ReadMetadata(folder string) (*model.RecordingMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.FolderPath(folder), MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrRecordingNotFound.WithMessagef("no metadata for %s", folder)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta model.RecordingMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errclass.ErrMetadataCorrupt.WithMessagef("%s: %v", folder, err)
	}
	return &meta, nil
}

// FlushChat writes one JSON record per line. Nothing is written for an empty
// list. Returns the number of bytes written.
func (s *Store) FlushChat(folder string, msgs []model.ChatMessage) (int64, error) {
	return writeJSONL(filepath.Join(s.FolderPath(folder), ChatFile), len(msgs), func(i int) any { return msgs[i] })
}

// FlushTimeline writes one JSON record per line. Nothing is written for an
// empty list. Returns the number of bytes written.
func (s *Store) FlushTimeline(folder string, events []model.TimelineEvent) (int64, error) {
	return writeJSONL(filepath.Join(s.FolderPath(folder), TimelineFile), len(events), func(i int) any { return events[i] })
}

// FlushConsent writes consent records as a single JSON array. Nothing is
// written for an empty list. Returns the number of bytes written.
func (s *Store) FlushConsent(folder string, recs []model.ConsentRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal consent records: %w", err)
	}
	path := filepath.Join(s.FolderPath(folder), ConsentFile)
	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return 0, fmt.Errorf("write consent records: %w", err)
	}
	return int64(len(data)), nil
}

// WriteAttendance writes a standalone attendance snapshot named by kind.
// Returns the number of bytes written.
func (s *Store) WriteAttendance(folder string, kind model.AttendanceKind, data any) (int64, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal attendance snapshot: %w", err)
	}
	name := AttendanceStartFile
	if kind == model.AttendanceEnd {
		name = AttendanceEndFile
	}
	if err := fsutil.AtomicWrite(filepath.Join(s.FolderPath(folder), name), raw, 0644); err != nil {
		return 0, fmt.Errorf("write attendance snapshot: %w", err)
	}
	return int64(len(raw)), nil
}

// ReadChat loads the chat transcript. An absent file means an empty list.
func (s *Store) ReadChat(folder string) ([]model.ChatMessage, error) {
	return readJSONL[model.ChatMessage](filepath.Join(s.FolderPath(folder), ChatFile))
}

// ReadTimeline loads the timeline log. An absent file means an empty list.
func (s *Store) ReadTimeline(folder string) ([]model.TimelineEvent, error) {
	return readJSONL[model.TimelineEvent](filepath.Join(s.FolderPath(folder), TimelineFile))
}

// ReadConsent loads the consent records. An absent file means an empty list.
func (s *Store) ReadConsent(folder string) ([]model.ConsentRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.FolderPath(folder), ConsentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read consent records: %w", err)
	}
	var recs []model.ConsentRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse consent records: %w", err)
	}
	return recs, nil
}

// Delete removes the entire recording folder recursively. A missing folder is
// reported as ErrRecordingNotFound, not a crash.
func (s *Store) Delete(folder string) error {
	path := s.FolderPath(folder)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errclass.ErrRecordingNotFound.WithMessagef("%s", folder)
		}
		return fmt.Errorf("stat recording folder: %w", err)
	}
	// A symlinked folder must not let RemoveAll reach outside the root.
	if err := pathutil.ValidatePathSafety(s.root, path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete recording folder: %w", err)
	}
	return nil
}

func writeJSONL(path string, n int, get func(int) any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	var total int64
	buf := make([]byte, 0, 256)
	for i := 0; i < n; i++ {
		line, err := json.Marshal(get(i))
		if err != nil {
			return 0, fmt.Errorf("marshal jsonl record: %w", err)
		}
		buf = append(buf[:0], line...)
		buf = append(buf, '\n')
		if err := fsutil.AppendBytes(path, buf, 0644); err != nil {
			return 0, err
		}
		total += int64(len(buf))
	}
	return total, nil
}

func readJSONL[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read jsonl file: %w", err)
	}

	var out []T
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) == 0 {
				continue
			}
			var rec T
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("parse jsonl record: %w", err)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
