package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store persists a single API credential in a YAML key-value file under the
// user's config directory. Persisting is opt-in; nothing is written unless
// Save is called.
type Store struct {
	path string
	key  string
}

// NewStore creates a store keyed by storageKey in the default config location
func NewStore(storageKey string) (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return NewStoreAt(filepath.Join(dir, "pictophone", "credentials.yaml"), storageKey), nil
}

// NewStoreAt creates a store backed by an explicit file path
func NewStoreAt(path, storageKey string) *Store {
	return &Store{
		path: path,
		key:  storageKey,
	}
}

// Save writes the credential, replacing any previously stored value
func (s *Store) Save(credential string) error {
	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[s.key] = credential

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// The file holds a secret, keep it owner-only.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Load returns the stored credential, or "" when none is stored
func (s *Store) Load() (string, error) {
	entries, err := s.read()
	if err != nil {
		return "", err
	}
	return entries[s.key], nil
}

// Clear removes any previously stored credential
func (s *Store) Clear() error {
	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, exists := entries[s.key]; !exists {
		return nil
	}
	delete(entries, s.key)

	if len(entries) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// read loads the credentials file, returning an empty map when it is missing
func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	entries := map[string]string{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return entries, nil
}
