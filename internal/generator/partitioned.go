package generator

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/metrics"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// GeneratePartitioned enumerates the candidate space across workers, each
// owning a contiguous index range and its own shard of the index log.
// Workers share nothing but the idempotent block store: a racing write for
// the same hash repeats a no-op. Shard logs are merged afterward into the
// final index, which renumbers ids densely and settles canonical flags in
// one sequential pass.
func (g *Generator) GeneratePartitioned(ctx context.Context, c store.Case, workers int) (Summary, error) {
	if workers <= 0 {
		workers = 1
	}
	total, err := TotalCombinations(c.States, c.Symbols)
	if err != nil {
		return Summary{}, err
	}
	start := time.Now()
	g.logger.Info("starting partitioned generation",
		"case", c.Name(),
		"workers", workers,
		"candidates", total,
	)

	options := machine.TransitionOptions(c.States, c.Symbols)
	blocks := store.NewBlockStore(g.layout.BlockRoot(c))

	skipped := make([]int64, workers)
	shardPaths := make([]string, workers)
	span := (total + int64(workers) - 1) / int64(workers)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := int64(w) * span
		hi := lo + span
		if hi > total {
			hi = total
		}
		shardPaths[w] = g.layout.WorkerIndexFile(c, w)
		// A crashed earlier run may have left a stale shard behind.
		if err := os.Remove(shardPaths[w]); err != nil && !os.IsNotExist(err) {
			return Summary{}, fmt.Errorf("reset shard log: %w", err)
		}
		if lo >= hi {
			// Still create the shard so the merge sees a complete set.
			idx, err := store.NewIndexWriter(shardPaths[w])
			if err != nil {
				return Summary{}, err
			}
			idx.Close()
			continue
		}
		eg.Go(func() error {
			n, err := g.generateRange(ctx, c, options, blocks, shardPaths[w], lo, hi)
			skipped[w] = n
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return Summary{}, fmt.Errorf("partitioned generation: %w", err)
	}

	machines, canonical, err := store.MergeIndexLogs(g.layout.IndexFile(c), shardPaths)
	if err != nil {
		return Summary{}, fmt.Errorf("merge worker index logs: %w", err)
	}

	var skippedTotal int64
	for _, n := range skipped {
		skippedTotal += n
	}
	summary := Summary{
		Case:      c,
		Strategy:  "partitioned",
		Total:     total,
		Machines:  machines,
		Skipped:   skippedTotal,
		Canonical: canonical,
		Elapsed:   time.Since(start),
	}
	g.finish(summary)
	return summary, nil
}

// generateRange is the per-worker body: decode, filter, store, append.
// Dedup state is local to the worker; global canonical status is settled
// at merge time.
func (g *Generator) generateRange(ctx context.Context, c store.Case, options []machine.Transition, blocks *store.BlockStore, shardPath string, lo, hi int64) (skipped int64, err error) {
	idx, err := store.NewIndexWriter(shardPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	progress := rate.NewLimiter(rate.Every(5*time.Second), 1)
	cells := make([]machine.Transition, c.States*c.Symbols)
	seen := make(map[string]struct{})
	counter := 0

	for i := lo; i < hi; i++ {
		if i%4096 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return skipped, cerr
			}
		}
		decodeCandidate(i, options, cells)
		if !hasHalt(cells) {
			skipped++
			continue
		}
		table, err := machine.NewRuleTable(c.States, c.Symbols, cells)
		if err != nil {
			return skipped, err
		}
		hash, _, err := blocks.Store(table)
		if err != nil {
			return skipped, err
		}
		_, dup := seen[hash]
		if !dup {
			seen[hash] = struct{}{}
		}
		entry := store.IndexEntry{
			MachineID:   store.MachineID(counter),
			States:      c.States,
			Symbols:     c.Symbols,
			RulesetHash: hash,
			IsCanonical: !dup,
			Timestamp:   time.Now().UTC(),
		}
		if err := idx.Append(entry); err != nil {
			return skipped, err
		}
		counter++

		if progress.Allow() {
			g.logger.Info("generation progress",
				"case", c.Name(),
				"range_start", lo,
				"range_end", hi,
				"scanned", i-lo+1,
				"indexed", counter,
			)
		}
	}
	return skipped, nil
}

func (g *Generator) finish(s Summary) {
	metrics.GeneratorMachinesTotal.WithLabelValues(s.Case.Name(), s.Strategy).Add(float64(s.Machines))
	metrics.GeneratorSkippedTotal.WithLabelValues(s.Case.Name(), s.Strategy).Add(float64(s.Skipped))
	metrics.GeneratorDuration.WithLabelValues(s.Case.Name(), s.Strategy).Observe(s.Elapsed.Seconds())
	g.logger.Info("generation finished",
		"case", s.Case.Name(),
		"strategy", s.Strategy,
		"candidates", s.Total,
		"machines", s.Machines,
		"skipped", s.Skipped,
		"canonical", s.Canonical,
		"elapsed", s.Elapsed.String(),
	)
}
