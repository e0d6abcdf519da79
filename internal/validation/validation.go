package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MinLabelLength is the minimum length for a volume label
	MinLabelLength = 2
	// MaxLabelLength is the maximum length for a volume label
	MaxLabelLength = 65
)

// labelPattern requires an alphanumeric start, followed by alphanumeric,
// underscore, dot, hyphen, or space characters.
var labelPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_. -]*$`)

// ValidateLabel validates a volume display label.
func ValidateLabel(label string) error {
	if len(label) < MinLabelLength {
		return fmt.Errorf("volume label must be at least %d characters", MinLabelLength)
	}

	if len(label) > MaxLabelLength {
		return fmt.Errorf("volume label must be at most %d characters", MaxLabelLength)
	}

	if !labelPattern.MatchString(label) {
		return fmt.Errorf("volume label must start with an alphanumeric character and contain only alphanumeric, underscore, dot, hyphen, or space characters")
	}

	return nil
}

// ValidateVolumePaths enforces the container/mount-point invariant: both
// paths must be absolute, they must differ, and neither may contain the
// other. A container mounted inside itself (or vice versa) would make a
// recursive delete of one destroy the other.
func ValidateVolumePaths(cipherDir, mountPoint string) error {
	if cipherDir == "" {
		return fmt.Errorf("encrypted container path is required")
	}
	if mountPoint == "" {
		return fmt.Errorf("mount point path is required")
	}

	if !filepath.IsAbs(cipherDir) {
		return fmt.Errorf("encrypted container path must be absolute, got %q", cipherDir)
	}
	if !filepath.IsAbs(mountPoint) {
		return fmt.Errorf("mount point path must be absolute, got %q", mountPoint)
	}

	cipher := filepath.Clean(cipherDir)
	mount := filepath.Clean(mountPoint)

	if cipher == mount {
		return fmt.Errorf("encrypted container and mount point must be different paths")
	}
	if isPathPrefix(cipher, mount) {
		return fmt.Errorf("mount point %q is inside the encrypted container %q", mount, cipher)
	}
	if isPathPrefix(mount, cipher) {
		return fmt.Errorf("encrypted container %q is inside the mount point %q", cipher, mount)
	}

	return nil
}

// isPathPrefix reports whether child is inside parent.
func isPathPrefix(parent, child string) bool {
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
