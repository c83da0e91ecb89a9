package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultWriter_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "run.jsonl")

	w, err := NewResultWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(ResultEntry{MachineID: "TM_000000", StepsTaken: 3, Halted: true}))
	require.NoError(t, w.Append(ResultEntry{MachineID: "TM_000001", StepsTaken: 10, Halted: false}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	entries, err := ReadResults(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ResultEntry{MachineID: "TM_000000", StepsTaken: 3, Halted: true}, entries[0])
	assert.Equal(t, ResultEntry{MachineID: "TM_000001", StepsTaken: 10, Halted: false}, entries[1])
}

func TestResultWriter_BufferedUntilFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")

	w, err := NewResultWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(ResultEntry{MachineID: "TM_000000", StepsTaken: 1, Halted: true}))

	entries, err := ReadResults(path)
	require.NoError(t, err)
	assert.Empty(t, entries, "entries stay in the batch buffer until Flush")

	require.NoError(t, w.Flush())
	entries, err = ReadResults(path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.NoError(t, w.Close())
}

func TestResultWriter_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")

	for i := 0; i < 2; i++ {
		w, err := NewResultWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Append(ResultEntry{MachineID: MachineID(i), StepsTaken: i, Halted: true}))
		require.NoError(t, w.Close())
	}

	entries, err := ReadResults(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "a new run appends, never truncates")
}

func TestResultEntry_ErrorField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	w, err := NewResultWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(ResultEntry{MachineID: "TM_000009", Error: "block missing"}))
	require.NoError(t, w.Close())

	entries, err := ReadResults(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "block missing", entries[0].Error)
	assert.False(t, entries[0].Halted)
}
