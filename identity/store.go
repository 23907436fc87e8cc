package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "identity.yaml"

// ErrNotFound is returned by Load when no identity has been saved.
var ErrNotFound = errors.New("no identity saved")

// FileStore persists the identity as YAML in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the identity file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load reads and validates the stored identity.
func (s *FileStore) Load() (Identity, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read identity: %w", err)
	}

	var id Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse identity: %w", err)
	}
	id = id.Normalize()
	if err := id.Validate(); err != nil {
		return Identity{}, fmt.Errorf("stored identity: %w", err)
	}
	return id, nil
}

// Save validates and writes id.
func (s *FileStore) Save(id Identity) error {
	id = id.Normalize()
	if err := id.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

// Clear removes the stored identity. Clearing twice is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}
