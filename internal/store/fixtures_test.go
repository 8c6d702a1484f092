package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(id string, key int64) Fixture {
	return Fixture{
		ID:            id,
		Home:          Team{ID: 1, Name: "Arsenal"},
		Away:          Team{ID: 2, Name: "Chelsea"},
		SchedulingKey: key,
	}
}

func TestFixtureStoreEmpty(t *testing.T) {
	s := NewFixtureStore(t.TempDir())

	fixtures, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, fixtures)

	_, err = s.Get("42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFixtureStoreAddGetRemove(t *testing.T) {
	s := NewFixtureStore(t.TempDir())

	require.NoError(t, s.Add(fixture("100", 5000)))

	got, err := s.Get("100")
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", got.Home.Name)
	assert.Equal(t, int64(5000), got.SchedulingKey)

	require.NoError(t, s.Remove("100"))
	_, err = s.Get("100")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Remove("100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFixtureStoreDuplicateID(t *testing.T) {
	s := NewFixtureStore(t.TempDir())

	require.NoError(t, s.Add(fixture("100", 5000)))
	err := s.Add(fixture("100", 9000))
	assert.ErrorIs(t, err, ErrExists)
}

func TestFixtureStoreSchedulingKeyCollision(t *testing.T) {
	s := NewFixtureStore(t.TempDir())

	require.NoError(t, s.Add(fixture("100", 5000)))
	require.NoError(t, s.Add(fixture("101", 5000)))
	require.NoError(t, s.Add(fixture("102", 5000)))

	keys := map[string]int64{}
	fixtures, err := s.List()
	require.NoError(t, err)
	for _, f := range fixtures {
		keys[f.ID] = f.SchedulingKey
	}
	// Colliding keys bump until free.
	assert.Equal(t, int64(5000), keys["100"])
	assert.Equal(t, int64(5001), keys["101"])
	assert.Equal(t, int64(5002), keys["102"])
}

func TestFixtureStoreListSorted(t *testing.T) {
	s := NewFixtureStore(t.TempDir())

	require.NoError(t, s.Add(fixture("late", 9000)))
	require.NoError(t, s.Add(fixture("early", 1000)))
	require.NoError(t, s.Add(fixture("mid", 5000)))

	fixtures, err := s.List()
	require.NoError(t, err)
	require.Len(t, fixtures, 3)
	assert.Equal(t, "early", fixtures[0].ID)
	assert.Equal(t, "mid", fixtures[1].ID)
	assert.Equal(t, "late", fixtures[2].ID)
}
