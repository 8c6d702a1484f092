package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPredictionFlow(t *testing.T) {
	s := NewSessions(time.Hour)

	s.StartPrediction(1, "100")
	s.SetHomeScore(1, "100", 2)

	home, ok := s.TakePrediction(1, "100")
	assert.True(t, ok)
	assert.Equal(t, 2, home)

	// Taking removes the entry.
	_, ok = s.TakePrediction(1, "100")
	assert.False(t, ok)
}

func TestTakeWithoutHomeScore(t *testing.T) {
	s := NewSessions(time.Hour)

	s.StartPrediction(1, "100")
	_, ok := s.TakePrediction(1, "100")
	assert.False(t, ok)
}

func TestFlowsAreKeyedPerUserAndFixture(t *testing.T) {
	s := NewSessions(time.Hour)

	s.SetHomeScore(1, "100", 2)
	s.SetHomeScore(1, "200", 3)
	s.SetHomeScore(2, "100", 4)

	home, ok := s.TakePrediction(1, "100")
	assert.True(t, ok)
	assert.Equal(t, 2, home)

	home, ok = s.TakePrediction(2, "100")
	assert.True(t, ok)
	assert.Equal(t, 4, home)

	home, ok = s.TakePrediction(1, "200")
	assert.True(t, ok)
	assert.Equal(t, 3, home)
}

func TestAbandonPrediction(t *testing.T) {
	s := NewSessions(time.Hour)

	s.SetHomeScore(1, "100", 2)
	s.AbandonPrediction(1, "100")

	_, ok := s.TakePrediction(1, "100")
	assert.False(t, ok)
}

func TestBroadcastWait(t *testing.T) {
	s := NewSessions(time.Hour)

	assert.False(t, s.InBroadcastWait(9))
	assert.False(t, s.TakeBroadcastWait(9))

	s.SetBroadcastWait(9)
	assert.True(t, s.InBroadcastWait(9))
	assert.True(t, s.TakeBroadcastWait(9))

	// Taking clears the armed state.
	assert.False(t, s.InBroadcastWait(9))
	assert.False(t, s.TakeBroadcastWait(9))
}

func TestEvictStale(t *testing.T) {
	s := NewSessions(time.Nanosecond)

	s.SetHomeScore(1, "100", 2)
	s.SetBroadcastWait(9)
	time.Sleep(time.Millisecond)

	assert.Equal(t, 2, s.evictStale())
	_, ok := s.TakePrediction(1, "100")
	assert.False(t, ok)
	assert.False(t, s.InBroadcastWait(9))
}

func TestEvictKeepsFresh(t *testing.T) {
	s := NewSessions(time.Hour)

	s.SetHomeScore(1, "100", 2)
	assert.Zero(t, s.evictStale())

	home, ok := s.TakePrediction(1, "100")
	assert.True(t, ok)
	assert.Equal(t, 2, home)
}
