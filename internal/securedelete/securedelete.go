// Package securedelete removes encrypted containers from disk. Every
// deletion goes through the deny-list guard first; there is no code
// path that mutates the filesystem without passing validation.
package securedelete

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mithril-vault/mithril/internal/log"
)

// ErrDangerousPath is returned when the target fails deny-list
// validation. Nothing is deleted in that case.
var ErrDangerousPath = errors.New("dangerous deletion target")

// Guard validates deletion targets against a deny-list before removing
// them.
type Guard struct {
	home string
}

// NewGuard creates a guard that denies the filesystem root and the
// current user's home directory.
func NewGuard() (*Guard, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Guard{home: filepath.Clean(home)}, nil
}

// NewGuardWithHome creates a guard with an explicit home directory.
func NewGuardWithHome(home string) *Guard {
	return &Guard{home: filepath.Clean(home)}
}

// Validate resolves the target path and checks it against the
// deny-list. It returns the resolved absolute path on success.
func (g *Guard) Validate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrDangerousPath)
	}

	// A bare "~" or "~/..." refers to the home directory; expand it so
	// the deny-list sees the real target.
	if path == "~" {
		path = g.home
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(g.home, path[2:])
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: path %q is not absolute", ErrDangerousPath, path)
	}

	resolved := filepath.Clean(path)

	// Resolve symlinks so a link pointing at a denied location cannot
	// slip through. A target that does not exist yet is resolved via
	// its parent.
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	} else if os.IsNotExist(err) {
		parent, err := filepath.EvalSymlinks(filepath.Dir(resolved))
		if err != nil {
			return "", fmt.Errorf("%w: cannot resolve %q", ErrDangerousPath, path)
		}
		resolved = filepath.Join(parent, filepath.Base(resolved))
	} else {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}

	if resolved == string(filepath.Separator) {
		return "", fmt.Errorf("%w: refusing to delete the filesystem root", ErrDangerousPath)
	}
	if g.home != "" && resolved == g.home {
		return "", fmt.Errorf("%w: refusing to delete the home directory", ErrDangerousPath)
	}

	return resolved, nil
}

// Delete validates the target and then removes it recursively. On
// guard rejection nothing is touched.
func (g *Guard) Delete(path string) error {
	resolved, err := g.Validate(path)
	if err != nil {
		return err
	}

	log.Info("deleting container", "path", resolved)

	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("delete %q: %w", resolved, err)
	}
	return nil
}
