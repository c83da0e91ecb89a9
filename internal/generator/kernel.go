package generator

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// maxKernelCandidates bounds the kernel strategy's output buffer. The
// whole candidate space is materialized before the sequential dedup pass,
// so larger spaces must go through the partitioned strategy instead.
const maxKernelCandidates = 1 << 26

// kernelGridWidth is the number of lane-executing goroutines per launch.
const kernelGridWidth = 256

// GenerateKernel enumerates the space with one logical lane per candidate
// index. Each lane decodes its own choice vector by repeated base
// conversion, with no shared state, and writes the decoded
// cells plus a validity flag into its disjoint buffer slot. A single
// sequential pass then hashes, stores, and indexes the valid candidates;
// dedup stays sequential because hash-map insertion is not safely
// parallel.
func (g *Generator) GenerateKernel(ctx context.Context, c store.Case) (Summary, error) {
	total, err := TotalCombinations(c.States, c.Symbols)
	if err != nil {
		return Summary{}, err
	}
	if total > maxKernelCandidates {
		return Summary{}, fmt.Errorf("case %s has %d candidates, above the kernel buffer limit %d; use the partitioned strategy",
			c.Name(), total, maxKernelCandidates)
	}
	start := time.Now()
	g.logger.Info("starting kernel generation",
		"case", c.Name(),
		"candidates", total,
		"grid_width", kernelGridWidth,
	)

	options := machine.TransitionOptions(c.States, c.Symbols)
	numCells := c.States * c.Symbols

	// Output buffer: one disjoint slot per lane.
	candidates := make([]machine.Transition, int(total)*numCells)
	valid := make([]bool, total)

	grid := kernelGridWidth
	if int64(grid) > total {
		grid = int(total)
	}
	eg, lctx := errgroup.WithContext(ctx)
	for w := 0; w < grid; w++ {
		lane := int64(w)
		eg.Go(func() error {
			iter := 0
			for idx := lane; idx < total; idx += int64(grid) {
				if iter++; iter%8192 == 0 {
					if err := lctx.Err(); err != nil {
						return err
					}
				}
				slot := candidates[idx*int64(numCells) : (idx+1)*int64(numCells)]
				decodeCandidate(idx, options, slot)
				valid[idx] = hasHalt(slot)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Summary{}, fmt.Errorf("kernel generation: %w", err)
	}

	// Sequential pass: hash, store, index in flat-index order. The run owns
	// the whole index, so a previous run's entries are discarded first.
	blocks := store.NewBlockStore(g.layout.BlockRoot(c))
	if err := os.Remove(g.layout.IndexFile(c)); err != nil && !os.IsNotExist(err) {
		return Summary{}, fmt.Errorf("reset index: %w", err)
	}
	idx, err := store.NewIndexWriter(g.layout.IndexFile(c))
	if err != nil {
		return Summary{}, err
	}
	indexClosed := false
	defer func() {
		if !indexClosed {
			idx.Close()
		}
	}()

	progress := rate.NewLimiter(rate.Every(5*time.Second), 1)
	seen := make(map[string]struct{})
	machines := 0
	var skipped int64

	for i := int64(0); i < total; i++ {
		if !valid[i] {
			skipped++
			continue
		}
		slot := candidates[i*int64(numCells) : (i+1)*int64(numCells)]
		table, err := machine.NewRuleTable(c.States, c.Symbols, slot)
		if err != nil {
			return Summary{}, err
		}
		hash, _, err := blocks.Store(table)
		if err != nil {
			return Summary{}, err
		}
		_, dup := seen[hash]
		if !dup {
			seen[hash] = struct{}{}
		}
		entry := store.IndexEntry{
			MachineID:   store.MachineID(machines),
			States:      c.States,
			Symbols:     c.Symbols,
			RulesetHash: hash,
			IsCanonical: !dup,
			Timestamp:   time.Now().UTC(),
		}
		if err := idx.Append(entry); err != nil {
			return Summary{}, err
		}
		machines++

		if progress.Allow() {
			g.logger.Info("dedup pass progress", "case", c.Name(), "indexed", machines, "scanned", i+1)
		}
	}
	indexClosed = true
	if err := idx.Close(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Case:      c,
		Strategy:  "kernel",
		Total:     total,
		Machines:  machines,
		Skipped:   skipped,
		Canonical: len(seen),
		Elapsed:   time.Since(start),
	}
	g.finish(summary)
	return summary, nil
}
