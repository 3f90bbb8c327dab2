// Package pathutil validates recording folder names and guards against path
// escapes out of the recordings root.
package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/recvault/recvault/pkg/errclass"
)

var folderRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateFolderName checks that a recording folder name is safe to join onto
// the recordings root. Names are NFC-normalized before checking.
func ValidateFolderName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("folder name must not be empty")
	}

	name = norm.NFC.String(name)

	if name == ".." || strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("folder name must not contain '..': %s", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("folder name must not contain separators: %s", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("folder name must not contain control characters: %q", name)
		}
	}
	if !folderRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("folder name must match [a-zA-Z0-9._-]+: %s", name)
	}
	return nil
}

// ValidatePathSafety verifies target path does not escape the recordings root.
func ValidatePathSafety(root, targetPath string) error {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return errclass.ErrPathEscape.WithMessagef("cannot resolve recordings root: %v", err)
	}

	resolvedTarget, err := filepath.EvalSymlinks(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			resolvedTarget = resolveClosestAncestor(targetPath)
		} else {
			return errclass.ErrPathEscape.WithMessagef("cannot resolve target: %v", err)
		}
	}

	if !strings.HasPrefix(resolvedTarget+string(filepath.Separator), resolvedRoot+string(filepath.Separator)) &&
		resolvedTarget != resolvedRoot {
		return errclass.ErrPathEscape.WithMessagef("path escapes recordings root: %s", targetPath)
	}
	return nil
}

// resolveClosestAncestor walks up from path to the closest existing ancestor,
// resolves it, then appends the remaining components.
func resolveClosestAncestor(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = resolveClosestAncestor(dir)
		} else {
			return filepath.Clean(path)
		}
	}
	return filepath.Join(resolved, base)
}
