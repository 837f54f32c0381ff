package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	id, err := store.Record(Run{
		Root:       "/app",
		StartedAt:  time.Now().Add(-time.Minute),
		Duration:   120 * time.Millisecond,
		Components: 3,
		Resources:  2,
		Routes:     5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = store.Record(Run{
		Root:      "/app",
		StartedAt: time.Now(),
		Duration:  90 * time.Millisecond,
		Error:     "resource \"db\": missing type",
	})
	require.NoError(t, err)

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "resource \"db\": missing type", runs[0].Error)
	assert.Equal(t, 3, runs[1].Components)
	assert.Equal(t, 120*time.Millisecond, runs[1].Duration)
}

func TestListLimit(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		_, err := store.Record(Run{
			Root:      "/app",
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	runs, err := store.List(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
