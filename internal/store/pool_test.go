package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPool_OrderedAndDeduplicated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	content := "TM_000002\n\nTM_000000\nTM_000002\n  TM_000001  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ids, err := LoadPool(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TM_000002", "TM_000000", "TM_000001"}, ids,
		"first-seen order preserved, blanks and duplicates dropped")
}

func TestLoadPool_Missing(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestWritePool_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools", "sel.txt")
	require.NoError(t, WritePool(path, []string{"TM_000001", "TM_000005"}))

	ids, err := LoadPool(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TM_000001", "TM_000005"}, ids)
}

func TestAppendToPool_GrowsMonotonically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools", "long_runners.txt")

	require.NoError(t, AppendToPool(path, []string{"TM_000003"}))
	require.NoError(t, AppendToPool(path, []string{"TM_000003", "TM_000007"}))
	require.NoError(t, AppendToPool(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TM_000003\nTM_000003\nTM_000007\n", string(data),
		"this layer never deduplicates the append-only pool")
}

func TestWritePoolFromIndex(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.jsonl")
	writeEntries(t, indexPath, []IndexEntry{
		{MachineID: "TM_000000", RulesetHash: "aa"},
		{MachineID: "TM_000001", RulesetHash: "aa"},
		{MachineID: "TM_000002", RulesetHash: "bb"},
	})

	poolPath := filepath.Join(dir, "pools", "case.txt")
	n, err := WritePoolFromIndex(indexPath, poolPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := LoadPool(poolPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"TM_000000", "TM_000001", "TM_000002"}, ids)
}

func TestListPools(t *testing.T) {
	dir := t.TempDir()

	names, err := ListPools(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, WritePool(filepath.Join(dir, "a.txt"), []string{"TM_000000"}))
	require.NoError(t, WritePool(filepath.Join(dir, "b.txt"), []string{"TM_000001"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	names, err = ListPools(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestPoolName(t *testing.T) {
	assert.Equal(t, "s2_k2", PoolName("/data/pools/s2_k2.txt"))
}
