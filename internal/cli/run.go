package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larrywigington/busybeaverGPU/internal/runner"
	"github.com/larrywigington/busybeaverGPU/internal/simulator"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Pool      string
	Case      string
	Output    string
	BatchSize int
	MaxSteps  int
	TapeSize  int
	Kernel    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a machine pool with checkpointed resume",
		Long: `Simulate every machine of a pool under the configured step budget.
Progress is checkpointed after each batch; re-running the same pool and
output resumes from the checkpoint and re-does nothing.

Example:
  bbsolver run --pool s2_k2 --case s2_k2 --output results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPool(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pool, "pool", "", "pool name (required)")
	cmd.Flags().StringVar(&opts.Case, "case", "", "case folder name, e.g. s2_k2 (required)")
	cmd.Flags().StringVar(&opts.Output, "output", "results", "output name for results and checkpoint")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "machines per batch/checkpoint (default from config)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "step budget per machine (default from config)")
	cmd.Flags().IntVar(&opts.TapeSize, "tape-size", 0, "tape cells per machine (default from config)")
	cmd.Flags().BoolVar(&opts.Kernel, "kernel", false, "use the kernel simulation substrate")
	_ = cmd.MarkFlagRequired("pool")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func runPool(cmd *cobra.Command, opts *RunOptions) error {
	cfg, layout, logger, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	c, err := store.ParseCase(opts.Case)
	if err != nil {
		return err
	}
	serveMetrics(cfg.Metrics.Port, logger)

	runCfg := runner.Config{
		Pool:      opts.Pool,
		Case:      c,
		Output:    opts.Output,
		BatchSize: cfg.Runner.BatchSize,
		MaxSteps:  cfg.Runner.MaxSteps,
		TapeSize:  cfg.Runner.TapeSize,
	}
	if opts.BatchSize > 0 {
		runCfg.BatchSize = opts.BatchSize
	}
	if opts.MaxSteps > 0 {
		runCfg.MaxSteps = opts.MaxSteps
	}
	if opts.TapeSize > 0 {
		runCfg.TapeSize = opts.TapeSize
	}

	var engine simulator.Engine
	if opts.Kernel || cfg.Search.UseGPU {
		engine = simulator.NewKernelEngine(0)
	} else {
		engine = simulator.NewCPUEngine(cfg.Search.Workers)
	}

	summary, err := runner.New(layout, engine, logger).Run(cmd.Context(), runCfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Pool %s completed: %d processed (%d halted, %d long runners, %d errors) in %d batches\n",
		summary.Pool, summary.Processed, summary.Halted, summary.LongRunners, summary.Errors, summary.Batches)
	return nil
}
