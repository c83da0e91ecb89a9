package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larrywigington/busybeaverGPU/internal/inspect"
	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Case      string
	MachineID string
	Hash      string
	LaTeX     bool
	Trace     int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Render a rule table by machine id or content hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Case, "case", "", "case folder name (required)")
	cmd.Flags().StringVar(&opts.MachineID, "machine-id", "", "machine id, e.g. TM_000123")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "ruleset hash to inspect directly")
	cmd.Flags().BoolVar(&opts.LaTeX, "latex", false, "also render a LaTeX array")
	cmd.Flags().IntVar(&opts.Trace, "trace", 0, "run the machine this many steps on a small tape and show it")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *InspectOptions) error {
	_, layout, _, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	c, err := store.ParseCase(opts.Case)
	if err != nil {
		return err
	}
	if (opts.MachineID == "") == (opts.Hash == "") {
		return fmt.Errorf("exactly one of --machine-id or --hash is required")
	}

	hash := opts.Hash
	states, symbols := c.States, c.Symbols
	out := cmd.OutOrStdout()
	if opts.MachineID != "" {
		index, err := store.LoadIndex(layout.IndexFile(c))
		if err != nil {
			return err
		}
		entry, err := index.Lookup(opts.MachineID)
		if err != nil {
			return err
		}
		hash = entry.RulesetHash
		states, symbols = entry.States, entry.Symbols
		fmt.Fprintf(out, "Machine %s\n  States: %d\n  Symbols: %d\n  Ruleset Hash: %s\n  Canonical: %v\n\n",
			entry.MachineID, entry.States, entry.Symbols, entry.RulesetHash, entry.IsCanonical)
	}

	table, err := store.NewBlockStore(layout.BlockRoot(c)).Load(hash, states, symbols)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Transition Table ===")
	fmt.Fprint(out, inspect.RenderTable(table))
	if opts.LaTeX {
		fmt.Fprintln(out, "\n=== LaTeX Table ===")
		fmt.Fprint(out, inspect.RenderLaTeX(table))
	}

	if opts.Trace > 0 {
		fmt.Fprintln(out, "\n=== Trace ===")
		m := machine.New(table, 32)
		fmt.Fprint(out, inspect.RenderTape(m, 8))
		for i := 0; i < opts.Trace && !m.Halted(); i++ {
			m.Step()
			fmt.Fprint(out, inspect.RenderTape(m, 8))
		}
	}
	return nil
}
