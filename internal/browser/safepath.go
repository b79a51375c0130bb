package browser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
)

// ErrPathTraversal is returned for any path that resolves outside the root
var ErrPathTraversal = errors.New("path escapes root")

// Confine resolves a client path under root. Paths outside root come back
// as a validation error so saved paths and download targets stay browsable.
func Confine(root, path string) (string, error) {
	dir, err := resolveWithinRoot(root, path)
	if err != nil {
		if errors.Is(err, ErrPathTraversal) {
			return "", apperror.Validation("Path escapes root")
		}
		return "", apperror.Internal(err)
	}
	return dir, nil
}

// resolveWithinRoot maps a client path onto the host filesystem under root.
// Absolute paths must already lie under root; relative paths are taken
// relative to it. Symlinked components are refused outright.
func resolveWithinRoot(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	var joined string
	if filepath.IsAbs(userPath) {
		joined = filepath.Clean(userPath)
	} else {
		joined = filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(userPath)))
	}

	if !isWithin(rootAbs, joined) {
		return "", ErrPathTraversal
	}

	if hasSymlinkComponent(rootAbs, joined) {
		return "", ErrPathTraversal
	}

	return joined, nil
}

func hasSymlinkComponent(rootAbs, fullPath string) bool {
	rel, err := filepath.Rel(rootAbs, fullPath)
	if err != nil {
		return true
	}
	if rel == "." {
		return false
	}
	cur := rootAbs
	for _, p := range strings.Split(rel, string(filepath.Separator)) {
		if p == "" || p == "." {
			continue
		}
		cur = filepath.Join(cur, p)
		st, err := os.Lstat(cur)
		if err != nil {
			// Component doesn't exist (yet): no symlink to traverse.
			return false
		}
		if st.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

// validFolderName rejects names that would address anything but a single
// new child directory
func validFolderName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
