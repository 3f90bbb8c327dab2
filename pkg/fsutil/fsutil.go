// Package fsutil provides filesystem primitives for atomic writes and
// append-only artifact files.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TmpPrefix names temporary files created during atomic writes. Doctor checks
// look for orphans with this prefix after a crash.
const TmpPrefix = ".recvault-tmp-"

// AtomicWrite writes data to a temporary file, fsyncs, then renames to target
// path. A crash mid-write leaves the previous file contents intact.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("atomic write create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("atomic write chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write close: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write rename: %w", err)
	}
	if err := FsyncDir(dir); err != nil {
		return fmt.Errorf("atomic write fsync dir: %w", err)
	}

	success = true
	return nil
}

// AppendBytes appends raw bytes to a file, creating it if absent. The file is
// opened in append mode per call; existing content is never rewritten or
// truncated.
func AppendBytes(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("open append file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append bytes: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync append file: %w", err)
	}
	return nil
}

// AppendLine appends exactly one record line, adding the trailing newline.
func AppendLine(path string, line []byte, perm os.FileMode) error {
	payload := make([]byte, 0, len(line)+1)
	payload = append(payload, line...)
	payload = append(payload, '\n')
	return AppendBytes(path, payload, perm)
}

// FsyncDir fsyncs a directory to ensure rename visibility is durable.
func FsyncDir(dirPath string) error {
	d, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("fsync dir open: %w", err)
	}
	defer d.Close()
	return d.Sync()
}
