// cmd/orrery/main.go
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-orrery/pkg/config"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/logging"
)

// DefaultConfigPath is read when --config is not given
const DefaultConfigPath = "orrery.json"

type rootOptions struct {
	configPath string
	logger     *logging.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &rootOptions{logger: logging.NewLogger()}
	if err := newRootCommand(opts).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	wopts := &windowOptions{rootOptions: opts}

	cmd := &cobra.Command{
		Use:   "orrery",
		Short: "Newtonian simulation of the inner solar system",
		Long: `Integrates a small set of bodies under mutual gravity, one simulated day
per step by default, and draws their trajectories and distances to the sun.

Without a subcommand the simulation opens in a window.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wopts.run(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath,
		"config", DefaultConfigPath,
		"Path to a JSON or YAML configuration file; defaults are used when it does not exist")
	wopts.addFlags(cmd.Flags())

	cmd.AddCommand(
		newWindowCommand(wopts),
		newTerminalCommand(opts),
		newHeadlessCommand(opts),
		newInitConfigCommand(opts),
	)
	return cmd
}

// loadConfig reads the configuration file, falling back to the defaults when
// it does not exist, then applies ORRERY_* overrides and validates.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	var cfg *config.Config

	if _, err := os.Stat(o.configPath); errors.Is(err, fs.ErrNotExist) {
		o.logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", o.configPath,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(o.configPath)
		if err != nil {
			o.logger.Error(ctx, "Failed to load configuration", err,
				"config_path", o.configPath,
			)
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		o.logger.Error(ctx, "Failed to apply environment configuration", err)
		return nil, err
	}
	return cfg, nil
}

// subscribeLifecycle logs pause changes, view changes and failures
// published on bus
func subscribeLifecycle(bus *event.Bus, logger *logging.Logger) {
	ctx := context.Background()
	bus.Subscribe(event.SimulationPaused, func(e event.Event) {
		logger.Info(ctx, "Simulation paused")
	})
	bus.Subscribe(event.SimulationResumed, func(e event.Event) {
		logger.Info(ctx, "Simulation resumed")
	})
	bus.Subscribe(event.ViewportChanged, func(e event.Event) {
		if view, ok := e.(*event.ViewportEvent); ok {
			logger.Debug(ctx, "View changed", "zoom", view.Zoom, "offset_x", view.OffsetX, "offset_y", view.OffsetY)
		}
	})
	bus.Subscribe(event.SimulationFailed, func(e event.Event) {
		if failure, ok := e.(*event.FailureEvent); ok {
			logger.Warn(ctx, "Simulation halted", "tick", failure.Tick, "error", failure.Err.Error())
		}
	})
}
