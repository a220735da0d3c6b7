// Package cli wires the companion into a terminal program: a live demo run
// against a simulated mesh, scripted scenario replay, and snapshot
// inspection.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lorabot/lorabot/internal/config"
	"github.com/lorabot/lorabot/internal/engine"
	"github.com/lorabot/lorabot/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the lorabot CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lorabot",
		Short: "lorabot - an emotive mesh companion",
		Long: `An on-screen companion that reflects live radio-mesh activity as an
emotive character: it perks up for messages, greets new nodes, celebrates
its own sends, and sleeps through the night.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig resolves the effective configuration: the stock defaults when
// no file was given.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

// openStore builds the configured snapshot backend. The returned closer is
// non-nil even for the no-op driver.
func openStore(cfg config.Config) (engine.SnapshotStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Driver {
	case config.DriverNone:
		return nil, noop, nil
	case config.DriverSQLite:
		s, err := store.OpenSQLite(cfg.Store.Path, cfg.Store.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.Addr})
		return store.NewRedisStore(client, cfg.Store.Namespace), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
