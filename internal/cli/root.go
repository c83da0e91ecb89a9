// Package cli wires the cobra command tree. Commands are thin: they load
// configuration, build the components, and delegate; all search logic
// lives in the internal packages they call.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/larrywigington/busybeaverGPU/internal/config"
	"github.com/larrywigington/busybeaverGPU/internal/store"
)

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	ConfigFile string
	DataDir    string
	Verbose    bool
}

// NewRootCommand creates the bbsolver root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bbsolver",
		Short: "Busy beaver rule space search",
		Long: `bbsolver enumerates small Turing machine rule tables, deduplicates
them by content hash, and simulates candidate pools under a step budget
with resumable checkpoints.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data root (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPoolCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// setup loads configuration and installs the default logger. Every
// subcommand calls it first; configuration failures abort before any work
// starts.
func setup(opts *RootOptions) (*config.Config, store.Layout, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, store.Layout{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	if opts.DataDir != "" {
		cfg.Data.Dir = opts.DataDir
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	} else if cfg.Log.Level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(cfg.Log.Level)); err == nil {
			level = parsed
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, store.Layout{Root: cfg.Data.Dir}, logger, nil
}

// serveMetrics exposes the prometheus registry when a port is configured.
func serveMetrics(port int, logger *slog.Logger) {
	if port <= 0 {
		return
	}
	go func() {
		addr := fmt.Sprintf(":%d", port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
}
