// Package doctor performs health checks over the recordings root.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recvault/recvault/internal/artifact"
	"github.com/recvault/recvault/internal/manifest"
	"github.com/recvault/recvault/internal/session"
	"github.com/recvault/recvault/pkg/fsutil"
	"github.com/recvault/recvault/pkg/model"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor checks the recordings root for abandoned sessions, unsealed
// folders, orphans, and leftover lock or temp files.
type Doctor struct {
	store *artifact.Store
}

// NewDoctor creates a doctor over the given store.
func NewDoctor(store *artifact.Store) *Doctor {
	return &Doctor{store: store}
}

// Check runs all diagnostic checks. With strict set, every completed folder
// is also re-verified against its manifest.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkFolders(result, strict)
	d.checkStaleLock(result)
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) checkFolders(result *Result, strict bool) {
	entries, err := os.ReadDir(d.store.Root())
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "root",
			Description: fmt.Sprintf("cannot read recordings root: %v", err),
			Severity:    "critical",
		})
		result.Healthy = false
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := entry.Name()
		path := d.store.FolderPath(folder)

		meta, err := d.store.ReadMetadata(folder)
		if err != nil {
			result.Findings = append(result.Findings, Finding{
				Category:    "orphan",
				Description: fmt.Sprintf("folder %q has no readable metadata", folder),
				Severity:    "warning",
				Path:        path,
			})
			continue
		}

		// A session left in recording/paused status means the process died
		// mid-recording. It is never resumed automatically.
		if meta.Status.Active() {
			result.Findings = append(result.Findings, Finding{
				Category:    "abandoned",
				Description: fmt.Sprintf("folder %q left in status %q by a crashed or killed instance", folder, meta.Status),
				Severity:    "warning",
				Path:        path,
			})
			continue
		}

		if meta.Status == model.StatusCompleted {
			if _, err := os.Stat(filepath.Join(path, manifest.Filename)); os.IsNotExist(err) {
				result.Findings = append(result.Findings, Finding{
					Category:    "integrity",
					Description: fmt.Sprintf("completed folder %q is missing its manifest", folder),
					Severity:    "error",
					Path:        path,
				})
				result.Healthy = false
				continue
			}
			if strict {
				d.verifyFolder(result, folder, path)
			}
		}
	}
}

func (d *Doctor) verifyFolder(result *Result, folder, path string) {
	res, err := manifest.Verify(path)
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "integrity",
			Description: fmt.Sprintf("verification of %q failed: %v", folder, err),
			Severity:    "error",
			Path:        path,
		})
		result.Healthy = false
		return
	}
	if !res.Valid {
		result.Findings = append(result.Findings, Finding{
			Category:    "integrity",
			Description: fmt.Sprintf("folder %q failed integrity verification", folder),
			Severity:    "critical",
			Path:        path,
		})
		result.Healthy = false
	}
}

func (d *Doctor) checkStaleLock(result *Result) {
	lockPath := filepath.Join(d.store.Root(), session.LockFileName)
	if _, err := os.Stat(lockPath); err == nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "lock",
			Description: "instance lock file present; stale if no recorder is running",
			Severity:    "info",
			Path:        lockPath,
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	filepath.Walk(d.store.Root(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasPrefix(info.Name(), fsutil.TmpPrefix) {
			result.Findings = append(result.Findings, Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file: %s", info.Name()),
				Severity:    "info",
				Path:        path,
			})
		}
		return nil
	})
}
