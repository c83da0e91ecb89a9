package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larrywigington/busybeaverGPU/internal/generator"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	States  int
	Symbols int
	Workers int
	Kernel  bool
	NoPool  bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Enumerate and index every rule table of a case",
		Long: `Enumerate the full rule table space for (states, symbols), reject
tables without a halt transition, store each distinct table once by
content hash, and append the machine index. A pool covering the whole
case is written afterward unless --no-pool is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.States, "states", 0, "number of machine states (default from config)")
	cmd.Flags().IntVar(&opts.Symbols, "symbols", 0, "number of tape symbols (default from config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "partitioned worker count (default from config)")
	cmd.Flags().BoolVar(&opts.Kernel, "kernel", false, "use the massively parallel kernel strategy")
	cmd.Flags().BoolVar(&opts.NoPool, "no-pool", false, "skip auto-creating the full case pool")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cfg, layout, logger, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	states, symbols := opts.States, opts.Symbols
	if states == 0 {
		states = cfg.Search.NumStates
	}
	if symbols == 0 {
		symbols = cfg.Search.NumSymbols
	}
	workers := opts.Workers
	if workers == 0 {
		workers = cfg.Search.Workers
	}
	c := store.Case{States: states, Symbols: symbols}

	gen := generator.New(layout, logger)
	var summary generator.Summary
	if opts.Kernel || cfg.Search.UseGPU {
		summary, err = gen.GenerateKernel(cmd.Context(), c)
	} else {
		summary, err = gen.GeneratePartitioned(cmd.Context(), c, workers)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d machines for %s (%d distinct, %d skipped) in %s\n",
		summary.Machines, c.Name(), summary.Canonical, summary.Skipped, summary.Elapsed)

	if !opts.NoPool {
		n, err := store.WritePoolFromIndex(layout.IndexFile(c), layout.PoolFile(c.Name()))
		if err != nil {
			return fmt.Errorf("auto-create case pool: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pool %s written with %d machines\n", c.Name(), n)
	}
	return nil
}
