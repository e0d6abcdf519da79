package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileStore persists profiles as a JSON file. Writes go through a
// temporary file and rename so a crash never leaves a truncated store.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path. The
// file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type storeFile struct {
	Profiles []Profile `json:"profiles"`
}

// List returns all profiles in insertion order
func (s *FileStore) List() ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Profiles, nil
}

// Get returns the profile with the given ID
func (s *FileStore) Get(id string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range f.Profiles {
		if f.Profiles[i].ID == id {
			p := f.Profiles[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Put inserts or updates a profile, assigning an ID when empty
func (s *FileStore) Put(p Profile) (*Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
		f.Profiles = append(f.Profiles, p)
	} else {
		found := false
		for i := range f.Profiles {
			if f.Profiles[i].ID == p.ID {
				f.Profiles[i] = p
				found = true
				break
			}
		}
		if !found {
			f.Profiles = append(f.Profiles, p)
		}
	}

	if err := s.save(f); err != nil {
		return nil, err
	}
	return &p, nil
}

// Remove deletes the profile with the given ID
func (s *FileStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	for i := range f.Profiles {
		if f.Profiles[i].ID == id {
			f.Profiles = append(f.Profiles[:i], f.Profiles[i+1:]...)
			return s.save(f)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *FileStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &storeFile{}, nil
		}
		return nil, fmt.Errorf("read profile store: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profile store: %w", err)
	}
	return &f, nil
}

func (s *FileStore) save(f *storeFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create profile store directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace profile store: %w", err)
	}
	return nil
}
