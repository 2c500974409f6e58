// cmd/orrery/window.go
package main

import (
	"context"

	"github.com/EngoEngine/engo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/render"
	engorender "github.com/opd-ai/go-orrery/pkg/render/engo"
)

type windowOptions struct {
	*rootOptions
	title      string
	fullscreen bool
}

func newWindowCommand(opts *windowOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show the simulation in a window",
		Long: `Opens a window and steps the simulation once per frame.

Space pauses, dragging with the left button pans, the wheel or Z and X zoom,
R resets the view and Escape quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context())
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (o *windowOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.title, "title", "Orrery", "Window title")
	flags.BoolVar(&o.fullscreen, "fullscreen", false, "Run in fullscreen mode")
}

func (o *windowOptions) run(ctx context.Context) error {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return err
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

	scene := engorender.NewOrreryScene(driver, bus, cfg.Presentation, palette, o.logger)

	// engo.Run owns the main goroutine until the window closes
	go func() {
		<-ctx.Done()
		engo.Exit()
	}()

	engo.Run(engo.RunOptions{
		Title:      o.title,
		Width:      cfg.Presentation.Width,
		Height:     cfg.Presentation.Height,
		Fullscreen: o.fullscreen,
		VSync:      true,
		FPSLimit:   cfg.Presentation.FPS,
	}, scene)

	driver.Stop()
	return driver.Err()
}
