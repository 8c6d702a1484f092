package store

import (
	"path/filepath"
	"sync"
)

// ProcessedTxStore remembers which purchase transactions have already been
// broadcast, backed by a JSON list of transaction keys.
type ProcessedTxStore struct {
	mu   sync.Mutex
	path string
}

// NewProcessedTxStore creates a store at dir/processed_transactions.json.
func NewProcessedTxStore(dir string) *ProcessedTxStore {
	return &ProcessedTxStore{path: filepath.Join(dir, "processed_transactions.json")}
}

// Contains reports whether a transaction key has been recorded.
func (s *ProcessedTxStore) Contains(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// Add records a transaction key. Recording an already-present key is a
// no-op.
func (s *ProcessedTxStore) Add(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return writeJSON(s.path, append(keys, key))
}

func (s *ProcessedTxStore) load() ([]string, error) {
	var keys []string
	if _, err := readJSON(s.path, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
