package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns the full version line printed by --version.
func String() string {
	return fmt.Sprintf("mithril %s (commit: %s, go: %s)", Version, Commit, runtime.Version())
}
