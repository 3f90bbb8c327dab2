// Package manifest seals a completed recording folder with per-file SHA-256
// digests and re-verifies the seal against the files on disk.
package manifest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/recvault/recvault/pkg/fsutil"
)

// Filename is the manifest file written at seal time.
const Filename = "hashes.sha256"

// Entry is one (digest, filename) pair in the manifest.
type Entry struct {
	Digest   string
	Filename string
}

// Result is the outcome of verifying a folder against its manifest. Valid is
// the AND of all per-file results. A missing manifest is reported as
// {Valid: false, Files: {"hashes.sha256": false}}.
type Result struct {
	Valid bool            `json:"valid"`
	Files map[string]bool `json:"files"`
}

// Seal enumerates every regular file in dir except the manifest itself,
// digests each, and writes one line per file sorted by filename. Line format:
// 64 hex digits, two spaces, filename.
func Seal(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read recording folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == Filename {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		digest, err := hashFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("hash %s: %w", name, err)
		}
		fmt.Fprintf(&b, "%s  %s\n", digest, name)
	}

	if err := fsutil.AtomicWrite(filepath.Join(dir, Filename), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Verify reads the manifest in dir and recomputes every recorded digest.
// Verification is fail-soft: a missing or mismatching file marks that entry
// false and checking continues. Hex comparison is case-insensitive.
func Verify(dir string) (*Result, error) {
	manifestPath := filepath.Join(dir, Filename)
	f, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Result{Valid: false, Files: map[string]bool{Filename: false}}, nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	entries, malformed, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	result := &Result{Valid: !malformed, Files: make(map[string]bool, len(entries))}
	for _, entry := range entries {
		ok := false
		digest, err := hashFile(filepath.Join(dir, entry.Filename))
		if err == nil {
			ok = strings.EqualFold(digest, entry.Digest)
		}
		result.Files[entry.Filename] = ok
		if !ok {
			result.Valid = false
		}
	}
	return result, nil
}

// parse reads manifest lines. Lines that do not match the expected shape are
// counted as malformed rather than aborting the scan.
func parse(r io.Reader) ([]Entry, bool, error) {
	var entries []Entry
	malformed := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		digest, name, ok := splitLine(line)
		if !ok {
			malformed = true
			continue
		}
		entries = append(entries, Entry{Digest: digest, Filename: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, err
	}
	return entries, malformed, nil
}

func splitLine(line string) (digest, name string, ok bool) {
	idx := strings.Index(line, "  ")
	if idx != 64 {
		return "", "", false
	}
	digest = line[:64]
	name = line[66:]
	if name == "" || !isHex(digest) {
		return "", "", false
	}
	return digest, name, true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
