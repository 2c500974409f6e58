// pkg/render/renderer.go
package render

import (
	"context"
	"fmt"
	"math"

	"github.com/opd-ai/go-orrery/pkg/logging"
	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// Status is the per-frame overlay information
type Status struct {
	Tick    uint64
	Elapsed float64 // simulated seconds
	Paused  bool
	Err     error
}

// Days returns the simulated time in whole days
func (s Status) Days() int {
	return int(math.Floor(s.Elapsed / physics.Day))
}

// Renderer draws one frame of bodies
type Renderer interface {
	Clear()
	RenderBody(body simulation.BodyState, look Appearance)
	RenderStatus(status Status)
	Present() error
}

// DrawFrame draws a complete frame: every body in order, then the status.
func DrawFrame(r Renderer, bodies []simulation.BodyState, status Status, palette *Palette) error {
	r.Clear()
	for _, body := range bodies {
		r.RenderBody(body, palette.Lookup(body.Name))
	}
	r.RenderStatus(status)
	return r.Present()
}

// FormatDistance formats a distance in meters as kilometres with one decimal
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// FormatStatus formats the overlay line shown by the renderers
func FormatStatus(status Status) string {
	text := fmt.Sprintf("Day %d", status.Days())
	if status.Err != nil {
		return text + "  HALTED: " + status.Err.Error()
	}
	if status.Paused {
		text += "  PAUSED"
	}
	return text
}

// NullRenderer draws nothing and logs each call at debug level.
type NullRenderer struct {
	logger *logging.Logger
	ctx    context.Context
	frames int
	bodies int
}

// NewNullRenderer creates a new NullRenderer; a nil logger discards records.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{
		logger: logger,
		ctx:    context.Background(),
	}
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {
	d.bodies = 0
	d.logger.Debug(d.ctx, "Clear called")
}

// RenderBody implements Renderer.
func (d *NullRenderer) RenderBody(body simulation.BodyState, look Appearance) {
	d.bodies++
	d.logger.Debug(d.ctx, "RenderBody called",
		"body", body.Name,
		"x", body.Position.X,
		"y", body.Position.Y,
		"distance", body.DistanceToReference,
	)
}

// RenderStatus implements Renderer.
func (d *NullRenderer) RenderStatus(status Status) {
	d.logger.Debug(d.ctx, "RenderStatus called", "tick", status.Tick, "paused", status.Paused)
}

// Present implements Renderer.
func (d *NullRenderer) Present() error {
	d.frames++
	d.logger.Debug(d.ctx, "Present called", "bodies", d.bodies)
	return nil
}

// Frames returns the number of presented frames
func (d *NullRenderer) Frames() int {
	return d.frames
}
