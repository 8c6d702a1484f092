package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalpost-labs/matchday/internal/prediction"
)

func TestTrackerMissingFileIsEmpty(t *testing.T) {
	tr := NewTracker(t.TempDir())

	entries, err := tr.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTrackerSaveLoadRoundTrip(t *testing.T) {
	tr := NewTracker(t.TempDir())

	entries := map[string]*TrackedMatch{
		"100": {
			HomeGoals: 2,
			AwayGoals: 1,
			Counts:    prediction.Counts{Home: 3, Away: 1, Draw: 2},
		},
	}
	require.NoError(t, tr.Save(entries))

	loaded, err := tr.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "100")
	assert.Equal(t, 2, loaded["100"].HomeGoals)
	assert.Equal(t, 1, loaded["100"].AwayGoals)
	assert.Equal(t, prediction.Counts{Home: 3, Away: 1, Draw: 2}, loaded["100"].Counts)
}

func TestTrackerSaveReplacesState(t *testing.T) {
	tr := NewTracker(t.TempDir())

	require.NoError(t, tr.Save(map[string]*TrackedMatch{"100": {}, "200": {}}))
	require.NoError(t, tr.Save(map[string]*TrackedMatch{"200": {HomeGoals: 1}}))

	loaded, err := tr.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.NotContains(t, loaded, "100")
}
