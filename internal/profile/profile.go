// Package profile defines volume profiles and their persistence.
package profile

import (
	"errors"

	"github.com/mithril-vault/mithril/internal/validation"
)

// ErrNotFound is returned when a profile does not exist in the store
var ErrNotFound = errors.New("profile not found")

// Profile describes one encrypted volume. Profiles never carry
// credential material or mount state; both are owned elsewhere.
type Profile struct {
	// ID is the stable identifier, unique within the store
	ID string `json:"id"`
	// Label is the display name
	Label string `json:"label"`
	// CipherDir is the encrypted container path
	CipherDir string `json:"cipher_dir"`
	// MountPoint is where the decrypted view is exposed
	MountPoint string `json:"mount_point"`
	// ExtraFlags are additional mount flags, passed verbatim as
	// separate argument vector elements
	ExtraFlags []string `json:"flags,omitempty"`
}

// Validate checks the profile fields and the container/mount-point
// path invariant.
func (p *Profile) Validate() error {
	if err := validation.ValidateLabel(p.Label); err != nil {
		return err
	}
	return validation.ValidateVolumePaths(p.CipherDir, p.MountPoint)
}

// Store is the persistence interface for volume profiles. The
// orchestrator only reads profiles; callers manage their lifecycle.
type Store interface {
	// List returns all profiles in insertion order
	List() ([]Profile, error)
	// Get returns the profile with the given ID
	Get(id string) (*Profile, error)
	// Put inserts or updates a profile, assigning an ID when empty
	Put(p Profile) (*Profile, error)
	// Remove deletes the profile with the given ID
	Remove(id string) error
}
