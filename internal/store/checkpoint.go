package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// Checkpoint is the set of machine ids already simulated for one
// pool + output pair. Fully rewritten after every batch; membership, not
// position, decides "already done". A single writer owns the file at a
// time; concurrent runs of the same pool + output need external mutual
// exclusion.
type Checkpoint struct {
	Completed []string `json:"completed"`
}

// LoadCheckpoint reads a checkpoint file. A missing file is an empty
// checkpoint, not an error.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// SaveCheckpoint rewrites the checkpoint atomically.
func SaveCheckpoint(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return nil
}

// CompletedSet returns checkpoint membership as a set.
func (cp Checkpoint) CompletedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(cp.Completed))
	for _, id := range cp.Completed {
		set[id] = struct{}{}
	}
	return set
}
