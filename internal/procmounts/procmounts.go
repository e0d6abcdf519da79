// Package procmounts reads the kernel mount table. The orchestrator
// treats it as the authoritative source for which volumes are mounted;
// persisted state is never trusted across restarts.
package procmounts

// GocryptfsFSType is the filesystem type the kernel reports for
// gocryptfs FUSE mounts.
const GocryptfsFSType = "fuse.gocryptfs"

// Entry is a single mount table entry.
type Entry struct {
	Device     string
	MountPoint string
	FSType     string
	Options    string
}

// Table is a parsed snapshot of the mount table.
type Table struct {
	entries []Entry
}

// Entries returns all entries in the snapshot.
func (t *Table) Entries() []Entry {
	return t.entries
}

// MountedAt reports whether anything is mounted at the given path.
func (t *Table) MountedAt(mountPoint string) bool {
	for _, e := range t.entries {
		if e.MountPoint == mountPoint {
			return true
		}
	}
	return false
}

// GocryptfsMounts returns the mount points of all gocryptfs volumes in
// the snapshot.
func (t *Table) GocryptfsMounts() []string {
	var points []string
	for _, e := range t.entries {
		if e.FSType == GocryptfsFSType {
			points = append(points, e.MountPoint)
		}
	}
	return points
}

// GocryptfsMountedAt reports whether a gocryptfs volume is mounted at
// the given path.
func (t *Table) GocryptfsMountedAt(mountPoint string) bool {
	for _, e := range t.entries {
		if e.FSType == GocryptfsFSType && e.MountPoint == mountPoint {
			return true
		}
	}
	return false
}
