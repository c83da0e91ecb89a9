package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/larrywigington/busybeaverGPU/internal/runner"
	"github.com/larrywigington/busybeaverGPU/internal/simulator"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// NewPoolCommand creates the pool command group.
func NewPoolCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Build and list machine pools",
	}
	cmd.AddCommand(newPoolBuildCommand(rootOpts))
	cmd.AddCommand(newPoolListCommand(rootOpts))
	return cmd
}

// PoolBuildOptions holds flags for pool build.
type PoolBuildOptions struct {
	*RootOptions
	Case string
	Name string
	IDs  []string
	All  bool
}

func newPoolBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PoolBuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a pool from a case's machine index",
		Long: `Build a named pool from a case index, either from the full index
(--all) or from an explicit id list (--ids TM_000001,TM_000002).
Unknown ids are rejected; duplicates collapse to one entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoolBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Case, "case", "", "case folder name (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "pool name (required)")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "machine ids to include")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include every machine in the case")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runPoolBuild(cmd *cobra.Command, opts *PoolBuildOptions) error {
	_, layout, _, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	c, err := store.ParseCase(opts.Case)
	if err != nil {
		return err
	}
	if opts.All == (len(opts.IDs) > 0) {
		return fmt.Errorf("exactly one of --all or --ids is required")
	}

	poolPath := layout.PoolFile(opts.Name)
	if opts.All {
		n, err := store.WritePoolFromIndex(layout.IndexFile(c), poolPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pool %s written with %d machines\n", opts.Name, n)
		return nil
	}

	index, err := store.LoadIndex(layout.IndexFile(c))
	if err != nil {
		return err
	}
	var ids []string
	seen := make(map[string]struct{})
	for _, raw := range opts.IDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, err := index.Lookup(id); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no machines selected, nothing saved")
	}
	if err := store.WritePool(poolPath, ids); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pool %s written with %d machines\n", opts.Name, len(ids))
	return nil
}

// PoolListOptions holds flags for pool list.
type PoolListOptions struct {
	*RootOptions
	Output string
}

func newPoolListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PoolListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pools and their run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoolList(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Output, "output", "results", "output name to derive status against")
	return cmd
}

func runPoolList(cmd *cobra.Command, opts *PoolListOptions) error {
	_, layout, logger, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	names, err := store.ListPools(layout.PoolsDir())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pools found")
		return nil
	}

	// Status derivation does not simulate anything; the engine is unused.
	r := runner.New(layout, simulator.NewCPUEngine(1), logger)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tSIZE\tCOMPLETED\tSTATUS")
	for _, name := range names {
		st, err := r.Inspect(name, opts.Output)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", st.Pool, st.Size, st.Completed, st.Status)
	}
	return w.Flush()
}
