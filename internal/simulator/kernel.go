package simulator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/metrics"
)

// MaxTapeCells is the compile-time capacity of one lane's local tape.
// Batches with a larger tapeSize must be rejected before dispatch, never
// silently truncated.
const MaxTapeCells = 512

// defaultGridWidth is how many lane-executing goroutines a launch uses.
const defaultGridWidth = 128

// KernelEngine mirrors one-thread-per-machine kernel execution: every lane
// owns a private fixed-capacity tape, reads its transitions from a shared
// immutable buffer, and writes a single disjoint output slot. No locks are
// taken inside a launch. Lane semantics are identical to machine.Run, which
// is what makes the two substrates interchangeable.
type KernelEngine struct {
	gridWidth int
}

// NewKernelEngine creates a kernel engine. gridWidth <= 0 selects the
// default lane-goroutine count.
func NewKernelEngine(gridWidth int) *KernelEngine {
	if gridWidth <= 0 {
		gridWidth = defaultGridWidth
	}
	return &KernelEngine{gridWidth: gridWidth}
}

func (e *KernelEngine) Name() string { return "kernel" }

// laneTransitions is one machine's table flattened into the serialized
// triple form the lane loop consumes: [write, dir, next] per cell, with
// write == -1 for halt. Flattening happens host-side, before launch.
type laneTransitions [][3]int32

func flattenTable(table machine.RuleTable) laneTransitions {
	cells := table.Cells()
	flat := make(laneTransitions, len(cells))
	for i, cell := range cells {
		t := cell.Tuple()
		flat[i] = [3]int32{int32(t[0]), int32(t[1]), int32(t[2])}
	}
	return flat
}

func (e *KernelEngine) RunBatch(ctx context.Context, tables []machine.RuleTable, maxSteps, tapeSize int) ([]machine.Result, error) {
	if err := validateBatchArgs(maxSteps, tapeSize); err != nil {
		return nil, err
	}
	if tapeSize > MaxTapeCells {
		return nil, &CapacityError{TapeSize: tapeSize, Max: MaxTapeCells}
	}
	start := time.Now()

	// Host-side staging: flatten every table so lanes only touch int32
	// triples and their own tape.
	transitions := make([]laneTransitions, len(tables))
	symbols := make([]int32, len(tables))
	for i, table := range tables {
		transitions[i] = flattenTable(table)
		symbols[i] = int32(table.Symbols())
	}

	steps := make([]int32, len(tables))
	halts := make([]bool, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	grid := e.gridWidth
	if grid > len(tables) {
		grid = len(tables)
	}
	for w := 0; w < grid; w++ {
		lane := w
		g.Go(func() error {
			for idx := lane; idx < len(tables); idx += grid {
				if err := ctx.Err(); err != nil {
					return err
				}
				simulateLane(transitions[idx], symbols[idx], int32(tapeSize), int32(maxSteps), &steps[idx], &halts[idx])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]machine.Result, len(tables))
	for i := range results {
		results[i] = machine.Result{Steps: int(steps[i]), Halted: halts[i]}
	}
	e.observe(results, start)
	return results, nil
}

// simulateLane is the per-lane body: fixed local tape, head at center,
// state 0, run to halt or budget. Head moves clamp at both tape edges.
func simulateLane(rules laneTransitions, numSymbols, tapeSize, maxSteps int32, stepsOut *int32, haltOut *bool) {
	var tape [MaxTapeCells]int32
	head := tapeSize / 2
	var state int32
	var steps int32
	halted := false

	for steps < maxSteps {
		symbol := tape[head]
		rule := rules[state*numSymbols+symbol]

		if rule[0] == -1 {
			halted = true
			break
		}

		tape[head] = rule[0]
		if rule[1] == 0 {
			head--
		} else {
			head++
		}
		if head < 0 {
			head = 0
		} else if head >= tapeSize {
			head = tapeSize - 1
		}

		state = rule[2]
		steps++
	}

	*stepsOut = steps
	*haltOut = halted
}

func (e *KernelEngine) observe(results []machine.Result, start time.Time) {
	metrics.SimBatchesTotal.WithLabelValues(e.Name()).Inc()
	metrics.SimMachinesTotal.WithLabelValues(e.Name()).Add(float64(len(results)))
	halted := 0
	for _, r := range results {
		if r.Halted {
			halted++
		}
	}
	metrics.SimHaltedTotal.WithLabelValues(e.Name()).Add(float64(halted))
	metrics.SimBatchDuration.WithLabelValues(e.Name()).Observe(time.Since(start).Seconds())
}
