// Package gocryptfs builds the argument vectors and stdin payloads for
// the external gocryptfs binary and its FUSE unmount helpers, and
// classifies their output into domain errors.
package gocryptfs

// DefaultBinary is the gocryptfs binary name resolved on PATH.
const DefaultBinary = "gocryptfs"

// Stdin terminator counts. Init confirms the passphrase, so its prompt
// consumes two newline-terminated reads; mount consumes one.
const (
	InitTerminators  = 2
	MountTerminators = 1
)

// Tool describes the external encryption tool invocation surface.
type Tool struct {
	// Binary is the tool binary name or path. Empty means DefaultBinary.
	Binary string
}

func (t Tool) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return DefaultBinary
}

// InitArgs returns the argument vector that initializes a new encrypted
// container, reading the passphrase from stdin.
func (t Tool) InitArgs(cipherDir string) []string {
	return []string{t.binary(), "-init", cipherDir, "-passfile", "-"}
}

// MountArgs returns the argument vector that mounts cipherDir at
// mountPoint. Extra flags are appended verbatim as separate elements,
// never joined or re-split.
func (t Tool) MountArgs(cipherDir, mountPoint string, extraFlags []string) []string {
	argv := []string{t.binary(), cipherDir, mountPoint, "-passfile", "-"}
	return append(argv, extraFlags...)
}

// UnmountStrategies returns the ordered unmount attempts for a mount
// point. Callers run them in order and stop at the first zero exit.
func UnmountStrategies(mountPoint string) [][]string {
	return [][]string{
		{"fusermount3", "-u", mountPoint},
		{"fusermount", "-u", mountPoint},
		{"umount", mountPoint},
	}
}
