package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// SchedulingKeyOffset is how many seconds before kickoff a fixture's
// scheduling key sits. Keys derive from kickoff unix time minus this offset,
// then get bumped by Add until unique.
const SchedulingKeyOffset int64 = 30

// Team identifies one side of a fixture.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Fixture is an admin-curated match open for predictions. SchedulingKey
// derives from kickoff time and doubles as a sort key; it is kept unique
// within the store so two fixtures never collide on it.
type Fixture struct {
	ID            string `json:"fixture_id"`
	Home          Team   `json:"home"`
	Away          Team   `json:"away"`
	SchedulingKey int64  `json:"scheduling_key"`
}

// FixtureStore is the durable list of tracked fixtures, backed by a single
// JSON file.
type FixtureStore struct {
	mu   sync.Mutex
	path string
}

// NewFixtureStore creates a fixture store at dir/fixtures.json.
func NewFixtureStore(dir string) *FixtureStore {
	return &FixtureStore{path: filepath.Join(dir, "fixtures.json")}
}

// List returns all fixtures ordered by scheduling key. A missing file is an
// empty store, not an error.
func (s *FixtureStore) List() ([]Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the fixture with the given id, or ErrNotFound.
func (s *FixtureStore) Get(id string) (*Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixtures, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range fixtures {
		if fixtures[i].ID == id {
			return &fixtures[i], nil
		}
	}
	return nil, ErrNotFound
}

// Add appends a fixture. Duplicate ids are rejected with ErrExists. If the
// scheduling key collides with an existing fixture it is incremented until
// free, so the key stays usable as a unique sort key.
func (s *FixtureStore) Add(f Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixtures, err := s.load()
	if err != nil {
		return err
	}

	taken := make(map[int64]bool, len(fixtures))
	for _, existing := range fixtures {
		if existing.ID == f.ID {
			return fmt.Errorf("fixture %s: %w", f.ID, ErrExists)
		}
		taken[existing.SchedulingKey] = true
	}
	for taken[f.SchedulingKey] {
		f.SchedulingKey++
	}

	fixtures = append(fixtures, f)
	return writeJSON(s.path, fixtures)
}

// Remove deletes the fixture with the given id, or returns ErrNotFound.
func (s *FixtureStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixtures, err := s.load()
	if err != nil {
		return err
	}

	kept := fixtures[:0]
	for _, f := range fixtures {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(fixtures) {
		return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	return writeJSON(s.path, kept)
}

func (s *FixtureStore) load() ([]Fixture, error) {
	var fixtures []Fixture
	if _, err := readJSON(s.path, &fixtures); err != nil {
		return nil, err
	}
	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].SchedulingKey < fixtures[j].SchedulingKey
	})
	return fixtures, nil
}
