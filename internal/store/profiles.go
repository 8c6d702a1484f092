package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ProfilePrediction is one prediction as recorded in a user's profile file.
// FinalScore stays empty until the fixture settles.
type ProfilePrediction struct {
	Match      string `json:"match"`
	Prediction string `json:"prediction"`
	FinalScore string `json:"final_score,omitempty"`
}

// Profile is a user's durable record: identity plus predictions by fixture.
type Profile struct {
	UserID      int64                         `json:"user_id"`
	Username    string                        `json:"username"`
	Predictions map[string]*ProfilePrediction `json:"predictions"`
}

// ProfileStore keeps one JSON file per user under a directory.
type ProfileStore struct {
	mu  sync.Mutex
	dir string
}

// NewProfileStore creates a profile store under dir/users.
func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: filepath.Join(dir, "users")}
}

// Get returns a user's profile, or ErrNotFound.
func (s *ProfileStore) Get(userID int64) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

// Upsert creates the profile if absent and refreshes the username
// (last-write-wins).
func (s *ProfileStore) Upsert(userID int64, username string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(userID)
	if errors.Is(err, ErrNotFound) {
		p = &Profile{UserID: userID, Predictions: make(map[string]*ProfilePrediction)}
	} else if err != nil {
		return nil, err
	}
	p.Username = username
	if err := s.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// PutPrediction records a prediction in the user's profile, creating the
// profile if needed.
func (s *ProfileStore) PutPrediction(userID int64, username, fixtureID, match, score string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(userID)
	if errors.Is(err, ErrNotFound) {
		p = &Profile{UserID: userID, Predictions: make(map[string]*ProfilePrediction)}
	} else if err != nil {
		return err
	}
	if username != "" {
		p.Username = username
	}
	p.Predictions[fixtureID] = &ProfilePrediction{Match: match, Prediction: score}
	return s.save(p)
}

// SetFinalScore writes the final score onto an existing profile prediction.
// Missing profile or prediction is a silent no-op: settlement must not fail
// because one user's file went missing.
func (s *ProfileStore) SetFinalScore(userID int64, fixtureID, finalScore string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pred, ok := p.Predictions[fixtureID]
	if !ok {
		return nil
	}
	pred.FinalScore = finalScore
	return s.save(p)
}

// Count returns the number of registered users.
func (s *ProfileStore) Count() (int, error) {
	ids, err := s.UserIDs()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// UserIDs lists every registered user id, for broadcasts.
func (s *ProfileStore) UserIDs() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	var ids []int64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *ProfileStore) load(userID int64) (*Profile, error) {
	var p Profile
	found, err := readJSON(s.userPath(userID), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if p.Predictions == nil {
		p.Predictions = make(map[string]*ProfilePrediction)
	}
	return &p, nil
}

func (s *ProfileStore) save(p *Profile) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	return writeJSON(s.userPath(p.UserID), p)
}

func (s *ProfileStore) userPath(userID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(userID, 10)+".json")
}
