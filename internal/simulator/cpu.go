package simulator

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/metrics"
)

// CPUEngine shards the batch across worker goroutines, each simulating its
// machines one at a time with machine.Run. Workers write to disjoint
// result slots, so no synchronization beyond the group wait is needed.
type CPUEngine struct {
	workers int
}

// NewCPUEngine creates a CPU engine with the given worker count.
// workers <= 0 means one worker per available CPU.
func NewCPUEngine(workers int) *CPUEngine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUEngine{workers: workers}
}

func (e *CPUEngine) Name() string { return "cpu" }

func (e *CPUEngine) RunBatch(ctx context.Context, tables []machine.RuleTable, maxSteps, tapeSize int) ([]machine.Result, error) {
	if err := validateBatchArgs(maxSteps, tapeSize); err != nil {
		return nil, err
	}
	start := time.Now()
	results := make([]machine.Result, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	workers := e.workers
	if workers > len(tables) {
		workers = len(tables)
	}
	if workers == 0 {
		return results, nil
	}

	chunk := (len(tables) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(tables) {
			hi = len(tables)
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = machine.Run(tables[i], maxSteps, tapeSize)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.observe(results, start)
	return results, nil
}

func (e *CPUEngine) observe(results []machine.Result, start time.Time) {
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
