package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordAndRecent(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, path := range []string{"specs/a.md", "specs/b.md", "specs/c.md"} {
		err := store.Record(Run{
			RunID:        "run-1",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			ArtifactPath: path,
			Status:       "PASS",
			Score:        100 - i,
		})
		require.NoError(t, err)
	}

	runs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first.
	assert.Equal(t, "specs/c.md", runs[0].ArtifactPath)
	assert.Equal(t, "specs/a.md", runs[2].ArtifactPath)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestStoreRecentLimit(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(Run{ArtifactPath: "spec.md", Status: "FAIL"}))
	}

	runs, err := store.Recent(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	// Zero and negative limits fall back to the default.
	runs, err = store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestStoreGeneratesRunID(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(Run{ArtifactPath: "spec.md", Status: "PASS", Score: 100}))

	runs, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].RunID)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestStoreCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".spaider", "history.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(Run{ArtifactPath: "spec.md", Status: "PASS", Score: 98}))

	// Reopen to prove the rows persisted.
	require.NoError(t, store.Close())
	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 98, runs[0].Score)
}
