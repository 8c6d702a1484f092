package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sessionKey identifies one user's in-flight prediction for one fixture.
type sessionKey struct {
	UserID    int64
	FixtureID string
}

type pendingPrediction struct {
	homeScore int
	hasHome   bool
	touched   time.Time
}

// Sessions holds multi-step conversation state: two-step score predictions
// and the admin broadcast prompt. Entries are evicted when the flow
// completes or when a sweeper finds them abandoned past the TTL.
type Sessions struct {
	mu        sync.Mutex
	pending   map[sessionKey]*pendingPrediction
	broadcast map[int64]time.Time
	ttl       time.Duration
}

// NewSessions creates a session store with the given abandonment TTL.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		pending:   make(map[sessionKey]*pendingPrediction),
		broadcast: make(map[int64]time.Time),
		ttl:       ttl,
	}
}

// StartPrediction opens (or restarts) a prediction flow.
func (s *Sessions) StartPrediction(userID int64, fixtureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionKey{userID, fixtureID}] = &pendingPrediction{touched: time.Now()}
}

// SetHomeScore records the first step of a prediction flow.
func (s *Sessions) SetHomeScore(userID int64, fixtureID string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{userID, fixtureID}
	p, ok := s.pending[key]
	if !ok {
		p = &pendingPrediction{}
		s.pending[key] = p
	}
	p.homeScore = score
	p.hasHome = true
	p.touched = time.Now()
}

// TakePrediction completes a flow: it returns the recorded home score and
// removes the entry. ok is false when there is no flow or the home score was
// never chosen.
func (s *Sessions) TakePrediction(userID int64, fixtureID string) (homeScore int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{userID, fixtureID}
	p, found := s.pending[key]
	if !found || !p.hasHome {
		return 0, false
	}
	delete(s.pending, key)
	return p.homeScore, true
}

// AbandonPrediction drops an in-flight flow, e.g. when the user backs out.
func (s *Sessions) AbandonPrediction(userID int64, fixtureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionKey{userID, fixtureID})
}

// SetBroadcastWait marks an admin as awaiting broadcast text.
func (s *Sessions) SetBroadcastWait(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast[adminID] = time.Now()
}

// TakeBroadcastWait reports and clears an admin's broadcast-wait state.
func (s *Sessions) TakeBroadcastWait(adminID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.broadcast[adminID]; !ok {
		return false
	}
	delete(s.broadcast, adminID)
	return true
}

// InBroadcastWait reports whether an admin is awaiting broadcast text.
func (s *Sessions) InBroadcastWait(adminID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.broadcast[adminID]
	return ok
}

// Sweep evicts abandoned entries on a timer until ctx is cancelled.
// Intended to be called with `go`.
func (s *Sessions) Sweep(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.evictStale(); n > 0 {
				logger.Info("evicted abandoned sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sessions) evictStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	evicted := 0
	for key, p := range s.pending {
		if p.touched.Before(cutoff) {
			delete(s.pending, key)
			evicted++
		}
	}
	for id, t := range s.broadcast {
		if t.Before(cutoff) {
			delete(s.broadcast, id)
			evicted++
		}
	}
	return evicted
}
