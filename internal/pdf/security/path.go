package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the configured root.
var ErrOutsideRoot = errors.New("path is outside configured directory")

// PathValidator confines tool paths to one directory tree. Relative paths
// are resolved against the root; symlinks are followed before the check.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The root must exist.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, errors.New("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &PathValidator{root: abs}, nil
}

// Root returns the resolved root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path after checking that it stays
// inside the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)
	if !v.within(clean) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	// A missing file is left for the validator to report.
	if real, err := filepath.EvalSymlinks(clean); err == nil && !v.within(real) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return clean, nil
}

func (v *PathValidator) within(path string) bool {
	if path == v.root {
		return true
	}
	rootWithSep := v.root
	if !strings.HasSuffix(rootWithSep, string(filepath.Separator)) {
		rootWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, rootWithSep)
}
