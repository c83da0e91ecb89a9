// Package runner drives a named pool of machines through the batch
// simulation engine, checkpointing after every batch so a multi-day run
// survives interruption without losing or repeating work.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/larrywigington/busybeaverGPU/internal/cache"
	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/metrics"
	"github.com/larrywigington/busybeaverGPU/internal/retry"
	"github.com/larrywigington/busybeaverGPU/internal/simulator"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

const defaultTableCacheSize = 4096

// Config selects what one pool run simulates and under which budgets.
type Config struct {
	Pool      string
	Case      store.Case
	Output    string
	BatchSize int
	MaxSteps  int
	TapeSize  int
}

func (c Config) validate() error {
	if c.Pool == "" {
		return fmt.Errorf("pool name is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output name is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", c.MaxSteps)
	}
	if c.TapeSize <= 0 {
		return fmt.Errorf("tape size must be positive, got %d", c.TapeSize)
	}
	return nil
}

// Summary reports one pool run.
type Summary struct {
	RunID            string
	Pool             string
	Output           string
	PoolSize         int
	AlreadyCompleted int
	Processed        int
	Halted           int
	LongRunners      int
	Errors           int
	Batches          int
	Elapsed          time.Duration
}

// Runner owns the sequential control loop: one batch at a time, checkpoint
// rewritten before the next batch starts, so checkpoint writes never race
// with in-flight simulation. A batch is atomic with respect to
// interruption; a crash re-simulates at most the in-flight batch.
type Runner struct {
	layout     store.Layout
	engine     simulator.Engine
	logger     *slog.Logger
	writeRetry retry.Policy
	tableCache *cache.LRU[string, machine.RuleTable]
}

type Option func(*Runner)

// WithWriteRetry overrides the retry policy for result and checkpoint
// persistence.
func WithWriteRetry(p retry.Policy) Option {
	return func(r *Runner) { r.writeRetry = p }
}

// WithTableCacheSize overrides the rule table cache capacity.
func WithTableCacheSize(n int) Option {
	return func(r *Runner) { r.tableCache = cache.NewLRU[string, machine.RuleTable](n) }
}

func New(layout store.Layout, engine simulator.Engine, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		layout:     layout,
		engine:     engine,
		logger:     logger.With("component", "runner"),
		writeRetry: retry.DefaultPolicy,
		tableCache: cache.NewLRU[string, machine.RuleTable](defaultTableCacheSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pool to completion, resuming from any existing
// checkpoint. Per-machine failures are logged and recorded as
// completed-with-error; they never abort the run. Simulation or
// persistence failures abort the current batch without advancing the
// checkpoint, so the batch replays in full on the next run.
func (r *Runner) Run(ctx context.Context, cfg Config) (Summary, error) {
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}
	if capErr := r.checkCapacity(cfg); capErr != nil {
		return Summary{}, capErr
	}

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "pool", cfg.Pool, "output", cfg.Output)
	start := time.Now()

	pool, err := store.LoadPool(r.layout.PoolFile(cfg.Pool))
	if err != nil {
		return Summary{}, fmt.Errorf("load pool: %w", err)
	}
	index, err := store.LoadIndex(r.layout.IndexFile(cfg.Case))
	if err != nil {
		return Summary{}, fmt.Errorf("load index: %w", err)
	}

	checkpointPath := r.layout.CheckpointFile(cfg.Pool, cfg.Output)
	checkpoint, err := store.LoadCheckpoint(checkpointPath)
	if err != nil {
		return Summary{}, err
	}
	completed := checkpoint.CompletedSet()

	// Membership, not position, decides what is already done.
	var pending []string
	for _, id := range pool {
		if _, done := completed[id]; !done {
			pending = append(pending, id)
		}
	}
	logger.Info("pool loaded",
		"total", len(pool),
		"completed", len(pool)-len(pending),
		"pending", len(pending),
		"engine", r.engine.Name(),
	)

	results, err := store.NewResultWriter(r.layout.ResultsFile(cfg.Pool, cfg.Output))
	if err != nil {
		return Summary{}, err
	}
	defer results.Close()

	summary := Summary{
		RunID:            runID,
		Pool:             cfg.Pool,
		Output:           cfg.Output,
		PoolSize:         len(pool),
		AlreadyCompleted: len(pool) - len(pending),
	}

	blocks := store.NewBlockStore(r.layout.BlockRoot(cfg.Case))
	for batchStart := 0; batchStart < len(pending); batchStart += cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		batchEnd := batchStart + cfg.BatchSize
		if batchEnd > len(pending) {
			batchEnd = len(pending)
		}
		batch := pending[batchStart:batchEnd]

		if err := r.runBatch(ctx, cfg, logger, index, blocks, results, batch, &checkpoint, &summary); err != nil {
			return summary, err
		}
		summary.Batches++

		if err := r.persist(ctx, checkpointPath, checkpoint, results); err != nil {
			return summary, err
		}
		metrics.RunnerBatchesTotal.WithLabelValues(cfg.Pool).Inc()
		metrics.RunnerCheckpointsWritten.WithLabelValues(cfg.Pool).Inc()
		logger.Info("batch checkpointed",
			"batch", summary.Batches,
			"processed", summary.Processed,
			"remaining", len(pending)-batchEnd,
		)
	}

	summary.Elapsed = time.Since(start)
	logger.Info("pool completed",
		"processed", summary.Processed,
		"halted", summary.Halted,
		"long_runners", summary.LongRunners,
		"errors", summary.Errors,
		"batches", summary.Batches,
		"elapsed", summary.Elapsed.String(),
	)
	return summary, nil
}

// checkCapacity rejects tape sizes the substrate cannot hold before any
// work starts.
func (r *Runner) checkCapacity(cfg Config) error {
	if _, ok := r.engine.(*simulator.KernelEngine); ok && cfg.TapeSize > simulator.MaxTapeCells {
		return &simulator.CapacityError{TapeSize: cfg.TapeSize, Max: simulator.MaxTapeCells}
	}
	return nil
}

// runBatch resolves, simulates, and records one batch. All ids in the
// batch end up in the checkpoint's completed set, including the ones that
// failed to resolve.
func (r *Runner) runBatch(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	index *store.Index,
	blocks *store.BlockStore,
	results *store.ResultWriter,
	batch []string,
	checkpoint *store.Checkpoint,
	summary *Summary,
) error {
	tables := make([]machine.RuleTable, 0, len(batch))
	simIDs := make([]string, 0, len(batch))
	var failed []store.ResultEntry

	for _, id := range batch {
		table, err := r.resolve(index, blocks, id)
		if err != nil {
			logger.Warn("machine failed to resolve, recording as completed-with-error",
				"machine_id", id, "error", err)
			metrics.RunnerMachineErrors.WithLabelValues(cfg.Pool).Inc()
			failed = append(failed, store.ResultEntry{MachineID: id, Error: err.Error()})
			continue
		}
		tables = append(tables, table)
		simIDs = append(simIDs, id)
	}

	outcomes, err := r.engine.RunBatch(ctx, tables, cfg.MaxSteps, cfg.TapeSize)
	if err != nil {
		return fmt.Errorf("simulate batch: %w", err)
	}

	var longRunners []string
	for i, id := range simIDs {
		entry := store.ResultEntry{
			MachineID:  id,
			StepsTaken: outcomes[i].Steps,
			Halted:     outcomes[i].Halted,
		}
		if err := results.Append(entry); err != nil {
			return err
		}
		if outcomes[i].Halted {
			summary.Halted++
		} else if outcomes[i].Steps >= cfg.MaxSteps {
			longRunners = append(longRunners, id)
		}
	}
	for _, entry := range failed {
		if err := results.Append(entry); err != nil {
			return err
		}
	}

	if len(longRunners) > 0 {
		err := r.writeRetry.Do(ctx, func() error {
			return store.AppendToPool(r.layout.LongRunnersFile(), longRunners)
		})
		if err != nil {
			return fmt.Errorf("promote long runners: %w", err)
		}
		metrics.RunnerLongRunnersPromoted.WithLabelValues(cfg.Pool).Add(float64(len(longRunners)))
		summary.LongRunners += len(longRunners)
	}

	checkpoint.Completed = append(checkpoint.Completed, batch...)
	summary.Processed += len(batch)
	summary.Errors += len(failed)
	return nil
}

// persist flushes buffered results, then rewrites the checkpoint. Order
// matters: a machine may only enter the completed set after its result
// line is durably on disk.
func (r *Runner) persist(ctx context.Context, checkpointPath string, checkpoint store.Checkpoint, results *store.ResultWriter) error {
	if err := r.writeRetry.Do(ctx, results.Flush); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	err := r.writeRetry.Do(ctx, func() error {
		return store.SaveCheckpoint(checkpointPath, checkpoint)
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// resolve maps a machine id to its rule table through the index and the
// content-addressed block store, with an LRU in front keyed by hash so
// duplicate machines skip the disk read.
func (r *Runner) resolve(index *store.Index, blocks *store.BlockStore, machineID string) (machine.RuleTable, error) {
	entry, err := index.Lookup(machineID)
	if err != nil {
		return machine.RuleTable{}, err
	}
	if table, ok := r.tableCache.Get(entry.RulesetHash); ok {
		return table, nil
	}
	table, err := blocks.Load(entry.RulesetHash, entry.States, entry.Symbols)
	if err != nil {
		return machine.RuleTable{}, err
	}
	r.tableCache.Put(entry.RulesetHash, table)
	return table, nil
}
