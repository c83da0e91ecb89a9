// Package store persists everything the search produces: content-addressed
// rule table blocks, the append-only machine index, machine pools, result
// logs, and run checkpoints. The on-disk layout is contractual:
//
//	rulesets/<case>/index.jsonl
//	rulesets/<case>/blocks/<hash[0:2]>/<hash[2:4]>/<hash>.json
//	pools/<name>.txt
//	pools/long_runners.txt
//	results/<pool>/<output>.jsonl
//	results/<pool>/<output>_checkpoint.json
package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Case identifies one (states, symbols) search space.
type Case struct {
	States  int
	Symbols int
}

// Name returns the case folder name, e.g. "s2_k2".
func (c Case) Name() string {
	return fmt.Sprintf("s%d_k%d", c.States, c.Symbols)
}

// ParseCase parses a case folder name like "s3_k2".
func ParseCase(name string) (Case, error) {
	var c Case
	if _, err := fmt.Sscanf(name, "s%d_k%d", &c.States, &c.Symbols); err != nil {
		return Case{}, fmt.Errorf("invalid case name %q (want sN_kM): %w", name, err)
	}
	if c.States <= 0 || c.Symbols <= 0 {
		return Case{}, fmt.Errorf("invalid case name %q: non-positive dimensions", name)
	}
	return c, nil
}

// Layout maps logical names to paths under a single data root.
type Layout struct {
	Root string
}

func (l Layout) CaseDir(c Case) string {
	return filepath.Join(l.Root, "rulesets", c.Name())
}

func (l Layout) IndexFile(c Case) string {
	return filepath.Join(l.CaseDir(c), "index.jsonl")
}

// WorkerIndexFile is the per-worker shard log used during partitioned
// generation, merged into IndexFile afterward.
func (l Layout) WorkerIndexFile(c Case, worker int) string {
	return filepath.Join(l.CaseDir(c), fmt.Sprintf("index.worker%03d.jsonl", worker))
}

func (l Layout) BlockRoot(c Case) string {
	return filepath.Join(l.CaseDir(c), "blocks")
}

func (l Layout) PoolFile(name string) string {
	return filepath.Join(l.Root, "pools", name+".txt")
}

func (l Layout) LongRunnersFile() string {
	return filepath.Join(l.Root, "pools", "long_runners.txt")
}

func (l Layout) PoolsDir() string {
	return filepath.Join(l.Root, "pools")
}

func (l Layout) ResultsFile(pool, output string) string {
	return filepath.Join(l.Root, "results", pool, output+".jsonl")
}

func (l Layout) CheckpointFile(pool, output string) string {
	return filepath.Join(l.Root, "results", pool, output+"_checkpoint.json")
}

// PoolName derives the pool name from a pool file path (basename without
// the .txt extension).
func PoolName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".txt")
}
