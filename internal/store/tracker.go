package store

import (
	"path/filepath"
	"sync"

	"github.com/goalpost-labs/matchday/internal/prediction"
)

// TrackedMatch is the monitor's last-observed state for one live fixture.
// Counts is the prediction tally snapshotted when the fixture was first seen
// live; it is deliberately never recomputed afterwards.
type TrackedMatch struct {
	HomeGoals int               `json:"home_goals"`
	AwayGoals int               `json:"away_goals"`
	Counts    prediction.Counts `json:"counts"`
}

// Tracker persists the live-tracking map (fixture id → TrackedMatch) across
// restarts. The monitor is its only writer.
type Tracker struct {
	mu   sync.Mutex
	path string
}

// NewTracker creates a tracker at dir/live_matches.json.
func NewTracker(dir string) *Tracker {
	return &Tracker{path: filepath.Join(dir, "live_matches.json")}
}

// Load returns the tracked map. A missing file is an empty map.
func (t *Tracker) Load() (map[string]*TrackedMatch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make(map[string]*TrackedMatch)
	if _, err := readJSON(t.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save atomically replaces the tracked map on disk.
func (t *Tracker) Save(entries map[string]*TrackedMatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return writeJSON(t.path, entries)
}
