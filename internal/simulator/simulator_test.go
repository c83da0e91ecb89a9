package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
)

// haltingTable reads: A0 -> 1RB, A1 -> 0RB, B0 -> 1LA, B1 -> HALT.
// On a zero tape it halts after exactly three applied transitions.
func haltingTable(t *testing.T) machine.RuleTable {
	t.Helper()
	table, err := machine.NewRuleTable(2, 2, []machine.Transition{
		machine.Move(1, machine.Right, 1),
		machine.Move(0, machine.Right, 1),
		machine.Move(1, machine.Left, 0),
		machine.Halt(),
	})
	require.NoError(t, err)
	return table
}

// spinnerTable ping-pongs between two zero cells forever; its halt cells
// are unreachable on a zero tape.
func spinnerTable(t *testing.T) machine.RuleTable {
	t.Helper()
	table, err := machine.NewRuleTable(2, 2, []machine.Transition{
		machine.Move(0, machine.Right, 1),
		machine.Halt(),
		machine.Move(0, machine.Left, 0),
		machine.Halt(),
	})
	require.NoError(t, err)
	return table
}

func engines() []Engine {
	return []Engine{NewCPUEngine(4), NewKernelEngine(8)}
}

func TestRunBatch(t *testing.T) {
	tables := []machine.RuleTable{haltingTable(t), spinnerTable(t), haltingTable(t)}

	for _, eng := range engines() {
		t.Run(eng.Name(), func(t *testing.T) {
			results, err := eng.RunBatch(context.Background(), tables, 100, 64)
			require.NoError(t, err)
			require.Len(t, results, len(tables), "one result per input, in order")

			assert.Equal(t, machine.Result{Steps: 3, Halted: true}, results[0])
			assert.Equal(t, machine.Result{Steps: 100, Halted: false}, results[1])
			assert.Equal(t, machine.Result{Steps: 3, Halted: true}, results[2])
		})
	}
}

func TestRunBatch_Empty(t *testing.T) {
	for _, eng := range engines() {
		t.Run(eng.Name(), func(t *testing.T) {
			results, err := eng.RunBatch(context.Background(), nil, 10, 16)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestRunBatch_InvalidArgs(t *testing.T) {
	tables := []machine.RuleTable{haltingTable(t)}
	for _, eng := range engines() {
		t.Run(eng.Name(), func(t *testing.T) {
			_, err := eng.RunBatch(context.Background(), tables, 0, 16)
			assert.Error(t, err)
			_, err = eng.RunBatch(context.Background(), tables, 10, 0)
			assert.Error(t, err)
		})
	}
}

func TestKernelEngine_CapacityError(t *testing.T) {
	eng := NewKernelEngine(0)
	_, err := eng.RunBatch(context.Background(), []machine.RuleTable{haltingTable(t)}, 10, MaxTapeCells+1)
	require.Error(t, err)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, MaxTapeCells+1, capErr.TapeSize)
	assert.Equal(t, MaxTapeCells, capErr.Max)
}

func TestKernelEngine_MaxTapeAccepted(t *testing.T) {
	eng := NewKernelEngine(0)
	results, err := eng.RunBatch(context.Background(), []machine.RuleTable{haltingTable(t)}, 10, MaxTapeCells)
	require.NoError(t, err)
	assert.True(t, results[0].Halted)
}

func TestRunBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tables := make([]machine.RuleTable, 64)
	for i := range tables {
		tables[i] = spinnerTable(t)
	}
	for _, eng := range engines() {
		t.Run(eng.Name(), func(t *testing.T) {
			_, err := eng.RunBatch(ctx, tables, 1_000_000, 64)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

// TestSubstratesAgree runs every machine of the s1_k2 space on both
// substrates and demands identical step counts and halt flags. This is the
// contract that lets checkpoints move between substrates.
func TestSubstratesAgree(t *testing.T) {
	options := machine.TransitionOptions(1, 2)
	var tables []machine.RuleTable
	for i := 0; i < len(options)*len(options); i++ {
		cells := []machine.Transition{options[i%len(options)], options[i/len(options)]}
		table, err := machine.NewRuleTable(1, 2, cells)
		require.NoError(t, err)
		tables = append(tables, table)
	}

	cpu, err := NewCPUEngine(3).RunBatch(context.Background(), tables, 500, 32)
	require.NoError(t, err)
	kernel, err := NewKernelEngine(5).RunBatch(context.Background(), tables, 500, 32)
	require.NoError(t, err)

	assert.Equal(t, cpu, kernel)

	// Cross-check both against the single-machine reference loop.
	for i, table := range tables {
		assert.Equal(t, machine.Run(table, 500, 32), cpu[i], "table %d", i)
	}
}
