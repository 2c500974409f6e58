// cmd/orrery/terminal.go
package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/render"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// terminalMargin leaves room around the outermost orbit
const terminalMargin = 1.15

type terminalOptions struct {
	*rootOptions
	frames   int
	cols     int
	rows     int
	fps      int
	maxTrail int
	noClear  bool
	out      io.Writer
}

func newTerminalCommand(root *rootOptions) *cobra.Command {
	opts := &terminalOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Draw the simulation as ASCII art in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			return opts.run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&opts.frames, "frames", 0, "Stop after this many frames; 0 runs until interrupted")
	cmd.Flags().IntVar(&opts.cols, "cols", 79, "Drawing width in characters")
	cmd.Flags().IntVar(&opts.rows, "rows", 30, "Drawing height in lines")
	cmd.Flags().IntVar(&opts.fps, "fps", 10, "Frames per second; 0 uses the configured rate")
	cmd.Flags().IntVar(&opts.maxTrail, "trail", 200, "Trail points drawn per body; 0 draws all")
	cmd.Flags().BoolVar(&opts.noClear, "no-clear", false, "Do not clear the screen between frames")
	return cmd
}

func (o *terminalOptions) run(ctx context.Context) error {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return err
	}
	if o.fps > 0 {
		cfg.Presentation.FPS = o.fps
	}
	palette, err := render.PaletteFromConfig(cfg.Presentation)
	if err != nil {
		return err
	}

	bus := event.NewEventBus()
	subscribeLifecycle(bus, o.logger)
	driver, err := engine.NewDriver(cfg, bus, o.logger)
	if err != nil {
		o.logger.Error(ctx, "Failed to build simulation", err)
		return err
	}

	extent := render.Extent(driver.State().Bodies) * terminalMargin
	renderer := render.NewTerminalRenderer(o.out, o.cols, o.rows, render.FitScale(o.cols, o.rows, extent))
	renderer.ShowDistances = cfg.Presentation.ShowDistances
	renderer.ClearScreen = !o.noClear

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frame := 0
	var drawErr error
	err = driver.Run(ctx, cfg.Presentation.FrameInterval(), func(stats engine.Stats) {
		var (
			bodies []simulation.BodyState
			status render.Status
		)
		driver.View(func(sim *simulation.Simulation) {
			bodies, status = render.SampleFrame(sim, o.maxTrail)
		})
		status.Paused = stats.Paused
		status.Err = stats.Err

		if drawErr = render.DrawFrame(renderer, bodies, status, palette); drawErr != nil {
			cancel()
			return
		}

		frame++
		if o.frames > 0 && frame >= o.frames {
			cancel()
		}
	})
	if drawErr != nil {
		o.logger.Error(ctx, "Failed to draw frame", drawErr)
		return drawErr
	}
	return err
}
