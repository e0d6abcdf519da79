package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "profiles.json"))
}

func validProfile() Profile {
	return Profile{
		Label:      "Work Vault",
		CipherDir:  "/data/cipher",
		MountPoint: "/mnt/clear",
	}
}

func TestListEmptyStore(t *testing.T) {
	profiles, err := newTestStore(t).List()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestPutAssignsID(t *testing.T) {
	store := newTestStore(t)

	p, err := store.Put(validProfile())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := store.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)
}

func TestPutUpdatesExisting(t *testing.T) {
	store := newTestStore(t)

	p, err := store.Put(validProfile())
	require.NoError(t, err)

	p.Label = "Renamed Vault"
	p.ExtraFlags = []string{"-allow_other"}
	_, err = store.Put(*p)
	require.NoError(t, err)

	profiles, err := store.List()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Renamed Vault", profiles[0].Label)
	assert.Equal(t, []string{"-allow_other"}, profiles[0].ExtraFlags)
}

func TestPutRejectsInvalidProfile(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"label too short", func(p *Profile) { p.Label = "x" }},
		{"relative cipher dir", func(p *Profile) { p.CipherDir = "data/cipher" }},
		{"mount inside container", func(p *Profile) { p.MountPoint = "/data/cipher/clear" }},
		{"same path", func(p *Profile) { p.MountPoint = "/data/cipher" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			_, err := store.Put(p)
			assert.Error(t, err)
		})
	}

	// Nothing was persisted.
	profiles, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestGetUnknownID(t *testing.T) {
	_, err := newTestStore(t).Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	p, err := store.Put(validProfile())
	require.NoError(t, err)

	require.NoError(t, store.Remove(p.ID))
	_, err = store.Get(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Remove(p.ID), ErrNotFound)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	store := newTestStore(t)

	for _, label := range []string{"First Vault", "Second Vault", "Third Vault"} {
		p := validProfile()
		p.Label = label
		p.CipherDir = "/data/" + label
		p.MountPoint = "/mnt/" + label
		_, err := store.Put(p)
		require.NoError(t, err)
	}

	profiles, err := store.List()
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "First Vault", profiles[0].Label)
	assert.Equal(t, "Third Vault", profiles[2].Label)
}

func TestStoreFilePermissions(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Put(validProfile())
	require.NoError(t, err)

	info, err := os.Stat(store.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRejectsCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).List()
	require.Error(t, err)
}
