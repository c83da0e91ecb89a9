package runner

import (
	"fmt"

	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// Status of a pool + output pair, derived purely from how much of the pool
// the checkpoint covers.
type Status string

const (
	StatusAvailable  Status = "Available"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// PoolStatus describes one pool's progress against an output name.
type PoolStatus struct {
	Pool      string
	Size      int
	Completed int
	Status    Status
}

// Inspect derives a pool's status for one output name. Only pool members
// count toward completion; stray checkpoint ids are ignored.
func (r *Runner) Inspect(pool, output string) (PoolStatus, error) {
	ids, err := store.LoadPool(r.layout.PoolFile(pool))
	if err != nil {
		return PoolStatus{}, fmt.Errorf("load pool: %w", err)
	}
	checkpoint, err := store.LoadCheckpoint(r.layout.CheckpointFile(pool, output))
	if err != nil {
		return PoolStatus{}, err
	}
	completed := checkpoint.CompletedSet()
	done := 0
	for _, id := range ids {
		if _, ok := completed[id]; ok {
			done++
		}
	}

	status := StatusAvailable
	switch {
	case done == 0:
		status = StatusAvailable
	case done < len(ids):
		status = StatusInProgress
	default:
		status = StatusCompleted
	}
	return PoolStatus{Pool: pool, Size: len(ids), Completed: done, Status: status}, nil
}
