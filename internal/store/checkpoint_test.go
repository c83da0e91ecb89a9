package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCheckpoint_MissingIsEmpty(t *testing.T) {
	cp, err := LoadCheckpoint(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, cp.Completed)
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "run_checkpoint.json")
	cp := Checkpoint{Completed: []string{"TM_000000", "TM_000001"}}
	require.NoError(t, SaveCheckpoint(path, cp))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, cp, loaded)

	// A later save fully rewrites the file.
	cp.Completed = append(cp.Completed, "TM_000002")
	require.NoError(t, SaveCheckpoint(path, cp))
	loaded, err = LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TM_000000", "TM_000001", "TM_000002"}, loaded.Completed)
}

func TestCheckpoint_CompletedSet(t *testing.T) {
	cp := Checkpoint{Completed: []string{"TM_000000", "TM_000000", "TM_000001"}}
	set := cp.CompletedSet()
	assert.Len(t, set, 2)
	_, ok := set["TM_000001"]
	assert.True(t, ok)
}
