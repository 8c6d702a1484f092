package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedTxStore(t *testing.T) {
	s := NewProcessedTxStore(t.TempDir())

	seen, err := s.Contains("tx1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.Add("tx1"))
	seen, err = s.Contains("tx1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Re-adding is a no-op, not an error.
	require.NoError(t, s.Add("tx1"))

	seen, err = s.Contains("tx2")
	require.NoError(t, err)
	assert.False(t, seen)
}
