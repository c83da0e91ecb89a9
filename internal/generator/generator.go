// Package generator enumerates every rule table of a (states, symbols)
// search space, filters out tables that can never halt, stores each
// distinct table once by content hash, and appends one index entry per
// admitted machine.
//
// Two strategies share one external contract. Partitioned splits the flat
// candidate index space into contiguous worker ranges; kernel decodes one
// candidate per lane into a disjoint output slot and dedups in a single
// sequential pass afterward. Both decode candidate indices identically
// (cell 0 is the least significant digit), so they enumerate the same
// space in the same order.
package generator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// TotalCombinations returns the size of the candidate space:
// (symbols*2*states + 1) ^ (states*symbols). Brute-force enumeration hits
// this wall fast; the error is the guard the callers rely on, not a bug.
func TotalCombinations(states, symbols int) (int64, error) {
	if states <= 0 || symbols <= 0 {
		return 0, fmt.Errorf("invalid case s%d_k%d", states, symbols)
	}
	base := int64(symbols*2*states + 1)
	cells := states * symbols
	total := int64(1)
	for i := 0; i < cells; i++ {
		if total > (1<<62)/base {
			return 0, fmt.Errorf("candidate space for s%d_k%d overflows the index range", states, symbols)
		}
		total *= base
	}
	return total, nil
}

// decodeCandidate expands a flat candidate index into its per-cell choice
// vector by repeated base conversion and materializes the cells.
func decodeCandidate(idx int64, options []machine.Transition, cells []machine.Transition) {
	base := int64(len(options))
	for i := range cells {
		cells[i] = options[idx%base]
		idx /= base
	}
}

func hasHalt(cells []machine.Transition) bool {
	for _, cell := range cells {
		if cell.IsHalt() {
			return true
		}
	}
	return false
}

// Summary reports one full enumeration run.
type Summary struct {
	Case      store.Case
	Strategy  string
	Total     int64
	Machines  int
	Skipped   int64
	Canonical int
	Elapsed   time.Duration
}

// Generator runs ruleset enumeration against one data layout.
type Generator struct {
	layout store.Layout
	logger *slog.Logger
}

func New(layout store.Layout, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		layout: layout,
		logger: logger.With("component", "generator"),
	}
}
