package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// LocalStore persists the excluded-module set as a JSON file under a data
// directory. Suited to single-node deployments and tests.
type LocalStore struct {
	mu   sync.RWMutex
	path string
}

// NewLocalStore creates a file-backed store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &LocalStore{path: filepath.Join(dir, "excluded_modules.json")}, nil
}

// Get returns the persisted excluded module names, or an empty slice when
// the file has never been written.
func (s *LocalStore) Get(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var modules []string
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// Set replaces the persisted set.
func (s *LocalStore) Set(_ context.Context, modules []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(modules)
}

// Delete removes the persisted set entirely. Idempotent.
func (s *LocalStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
