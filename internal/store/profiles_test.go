package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStoreUpsert(t *testing.T) {
	s := NewProfileStore(t.TempDir())

	_, err := s.Get(111)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := s.Upsert(111, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	// Username refreshes, predictions survive.
	require.NoError(t, s.PutPrediction(111, "alice", "100", "Arsenal vs Chelsea", "2 - 1"))
	p, err = s.Upsert(111, "alice_renamed")
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", p.Username)
	assert.Len(t, p.Predictions, 1)
}

func TestProfileStorePredictionLifecycle(t *testing.T) {
	s := NewProfileStore(t.TempDir())

	require.NoError(t, s.PutPrediction(222, "bob", "100", "Arsenal vs Chelsea", "1 - 1"))
	require.NoError(t, s.SetFinalScore(222, "100", "2 - 0"))

	p, err := s.Get(222)
	require.NoError(t, err)
	pred := p.Predictions["100"]
	require.NotNil(t, pred)
	assert.Equal(t, "1 - 1", pred.Prediction)
	assert.Equal(t, "2 - 0", pred.FinalScore)
}

func TestProfileStoreSetFinalScoreMissingIsNoop(t *testing.T) {
	s := NewProfileStore(t.TempDir())

	// No profile at all.
	assert.NoError(t, s.SetFinalScore(333, "100", "2 - 0"))

	// Profile exists but never predicted this fixture.
	_, err := s.Upsert(333, "carol")
	require.NoError(t, err)
	assert.NoError(t, s.SetFinalScore(333, "100", "2 - 0"))
}

func TestProfileStoreCountAndUserIDs(t *testing.T) {
	s := NewProfileStore(t.TempDir())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Upsert(111, "alice")
	require.NoError(t, err)
	_, err = s.Upsert(222, "bob")
	require.NoError(t, err)

	ids, err := s.UserIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{111, 222}, ids)

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
