package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search stage counters and histograms, partitioned by case (sN_kM) where
// the stage works per-case and by substrate (cpu/kernel) for simulation.

var (
	// Generator
	GeneratorMachinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "generator",
		Name:      "machines_total",
		Help:      "Total machines admitted to the index",
	}, []string{"case", "strategy"})

	GeneratorSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "generator",
		Name:      "skipped_total",
		Help:      "Total candidates rejected for lacking a halt transition",
	}, []string{"case", "strategy"})

	GeneratorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "busybeaver",
		Subsystem: "generator",
		Name:      "run_duration_seconds",
		Help:      "Full enumeration duration",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
	}, []string{"case", "strategy"})

	// Block store
	BlocksWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "store",
		Name:      "blocks_written_total",
		Help:      "Total content-addressed blocks created",
	})

	BlockDedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "store",
		Name:      "block_dedup_hits_total",
		Help:      "Total store calls that found the block already present",
	})

	// Simulation
	SimBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "simulator",
		Name:      "batches_total",
		Help:      "Total batches simulated",
	}, []string{"substrate"})

	SimMachinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "simulator",
		Name:      "machines_total",
		Help:      "Total machines simulated",
	}, []string{"substrate"})

	SimHaltedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "simulator",
		Name:      "halted_total",
		Help:      "Total machines that halted within the step budget",
	}, []string{"substrate"})

	SimBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "busybeaver",
		Subsystem: "simulator",
		Name:      "batch_duration_seconds",
		Help:      "Batch simulation duration",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"substrate"})

	// Pool runner
	RunnerBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "runner",
		Name:      "batches_total",
		Help:      "Total pool batches completed and checkpointed",
	}, []string{"pool"})

	RunnerCheckpointsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "runner",
		Name:      "checkpoints_written_total",
		Help:      "Total checkpoint rewrites",
	}, []string{"pool"})

	RunnerMachineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "runner",
		Name:      "machine_errors_total",
		Help:      "Total machines completed-with-error (missing block, decode failure)",
	}, []string{"pool"})

	RunnerLongRunnersPromoted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busybeaver",
		Subsystem: "runner",
		Name:      "long_runners_promoted_total",
		Help:      "Total machines promoted to the long-runner pool",
	}, []string{"pool"})
)
