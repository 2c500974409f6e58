// cmd/orrery/headless.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/health"
	"github.com/opd-ai/go-orrery/pkg/logging"
	"github.com/opd-ai/go-orrery/pkg/metrics"
	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/render"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// memoryLimitMB fails readiness when the heap grows past it
const memoryLimitMB = 2048

type headlessOptions struct {
	*rootOptions
	steps       int
	listen      string
	reportEvery uint64
	drawEvery   uint64
	hold        bool
}

func newHeadlessCommand(root *rootOptions) *cobra.Command {
	opts := &headlessOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Step the simulation without drawing",
		Long: `Steps the simulation as fast as possible and logs a final report of every
body. With --listen, /health, /ready and /metrics are served while it runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&opts.steps, "steps", 365, "Number of steps to run")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Address for the health and metrics server, e.g. :9090; overrides the config")
	cmd.Flags().Uint64Var(&opts.reportEvery, "report-every", 0, "Log progress every N steps; 0 disables")
	cmd.Flags().Uint64Var(&opts.drawEvery, "draw-every", 0, "Sample a frame every N steps and log it at debug level; 0 disables")
	cmd.Flags().BoolVar(&opts.hold, "hold", false, "Keep serving after the last step until interrupted")
	return cmd
}

func (o *headlessOptions) run(ctx context.Context) error {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return err
	}
	if o.listen != "" {
		cfg.Observability.ListenAddress = o.listen
	}

	bus := event.NewEventBus()
	subscribeLifecycle(bus, o.logger)
	if o.reportEvery > 0 {
		bus.Subscribe(event.StepCompleted, func(e event.Event) {
			if step, ok := e.(*event.StepEvent); ok && step.Tick%o.reportEvery == 0 {
				o.logger.Info(ctx, "Progress", "tick", step.Tick, "days", step.Elapsed/physics.Day)
			}
		})
	}

	driver, err := engine.NewDriver(cfg, bus, o.logger)
	if err != nil {
		o.logger.Error(ctx, "Failed to build simulation", err)
		return err
	}
	ctx = logging.WithRunID(ctx, driver.RunID())

	var frames *render.NullRenderer
	if o.drawEvery > 0 {
		palette, err := render.PaletteFromConfig(cfg.Presentation)
		if err != nil {
			return err
		}
		frames = render.NewNullRenderer(o.logger)
		bus.Subscribe(event.StepCompleted, func(e event.Event) {
			if step, ok := e.(*event.StepEvent); ok && step.Tick%o.drawEvery == 0 {
				o.drawFrame(ctx, driver, frames, palette)
			}
		})
	}

	collector := metrics.NewCollector()
	driver.SetObserver(collector)

	var server *http.Server
	if addr := cfg.Observability.ListenAddress; addr != "" {
		server, err = o.serve(ctx, addr, driver, collector)
		if err != nil {
			return err
		}
		defer o.shutdown(ctx, server, cfg.Observability.GracePeriod())
	}

	start := time.Now()
	runErr := driver.RunSteps(ctx, o.steps)
	o.report(ctx, driver, frames, time.Since(start))

	if runErr == nil && o.hold && server != nil {
		o.logger.Info(ctx, "Holding for scrapes until interrupted")
		<-ctx.Done()
	}
	driver.Stop()

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (o *headlessOptions) serve(ctx context.Context, addr string, driver *engine.Driver, collector *metrics.Collector) (*http.Server, error) {
	mux := http.NewServeMux()
	health.ForSimulation(driver, memoryLimitMB).Register(mux)
	mux.Handle(metrics.Path, collector.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		o.logger.Error(ctx, "Failed to listen", err, "address", addr)
		return nil, err
	}

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		o.logger.Info(ctx, "Starting health and metrics server", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			o.logger.Error(ctx, "Health and metrics server failed", err)
		}
	}()
	return server, nil
}

func (o *headlessOptions) shutdown(ctx context.Context, server *http.Server, grace time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		o.logger.Error(ctx, "Health and metrics server shutdown failed", err)
	}
}

// drawFrame runs the presentation path without a surface. It is called from
// a StepCompleted handler, where the driver lock is not held.
func (o *headlessOptions) drawFrame(ctx context.Context, driver *engine.Driver, r *render.NullRenderer, palette *render.Palette) {
	var (
		bodies []simulation.BodyState
		status render.Status
	)
	driver.View(func(sim *simulation.Simulation) {
		bodies, status = render.SampleFrame(sim, 1)
	})
	if err := render.DrawFrame(r, bodies, status, palette); err != nil {
		o.logger.Warn(ctx, "Frame draw failed", "tick", status.Tick, "error", err.Error())
	}
}

// report logs one record per body followed by a summary
func (o *headlessOptions) report(ctx context.Context, driver *engine.Driver, frames *render.NullRenderer, took time.Duration) {
	state := driver.State()
	for _, b := range state.Bodies {
		o.logger.Info(ctx, "Body",
			"name", b.Name,
			"reference", b.IsReference(),
			"x_au", b.Position.X/physics.AU,
			"y_au", b.Position.Y/physics.AU,
			"speed_m_s", b.Velocity.Length(),
			"distance_km", b.DistanceToReference/1000,
		)
	}

	attrs := []any{
		"steps", state.Tick,
		"days", state.Days(),
		"wall_time", took.String(),
	}
	if frames != nil {
		attrs = append(attrs, "frames", frames.Frames())
	}
	if err := driver.Err(); err != nil {
		attrs = append(attrs, "halted", err.Error())
	}
	o.logger.Info(ctx, "Run complete", attrs...)
}
