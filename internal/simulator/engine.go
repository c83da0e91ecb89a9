// Package simulator runs batches of independent machines under a shared
// step budget. Two substrates implement the same contract and must produce
// identical results for identical inputs: a CPU worker-pool engine and a
// kernel-style engine modelled on one-thread-per-machine execution with
// fixed-capacity per-lane tapes.
package simulator

import (
	"context"
	"fmt"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
)

// Engine simulates a batch of machines. Results are order-preserving: one
// Result per input table, each machine on its own zero-initialized tape of
// tapeSize cells with the head starting at the midpoint. Machines never
// interact, so a batch is an embarrassingly parallel map.
type Engine interface {
	Name() string
	RunBatch(ctx context.Context, tables []machine.RuleTable, maxSteps, tapeSize int) ([]machine.Result, error)
}

// CapacityError reports a tape size the execution substrate cannot hold.
// Callers must validate before dispatch; there is no runtime negotiation.
type CapacityError struct {
	TapeSize int
	Max      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("tape size %d exceeds substrate capacity %d", e.TapeSize, e.Max)
}

func validateBatchArgs(maxSteps, tapeSize int) error {
	if maxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", maxSteps)
	}
	if tapeSize <= 0 {
		return fmt.Errorf("tape size must be positive, got %d", tapeSize)
	}
	return nil
}
