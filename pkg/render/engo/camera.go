// pkg/render/engo/camera.go
package engo

import (
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/render"
)

// Zoom steps
const (
	wheelZoomBase = 1.1
	keyZoomStep   = 1.25
)

// CameraSystem pans the viewport with a left-button drag and zooms it with
// the mouse wheel around the cursor. A ViewportChanged event is published
// for each zoom, each reset and once at the end of a drag that moved.
type CameraSystem struct {
	viewport *render.Viewport
	bus      *event.Bus
	drag     dragTracker
	dragged  bool
}

// NewCameraSystem creates a camera controlling viewport. bus may be nil.
func NewCameraSystem(viewport *render.Viewport, bus *event.Bus) *CameraSystem {
	return &CameraSystem{viewport: viewport, bus: bus}
}

// Remove satisfies the ecs.System interface
func (c *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Priority runs the camera before the simulation draws
func (c *CameraSystem) Priority() int {
	return 20
}

// Update reads the mouse
func (c *CameraSystem) Update(dt float32) {
	m := engo.Input.Mouse
	c.handleMouse(engo.Point{X: m.X, Y: m.Y}, m.Action, m.Button, m.ScrollY)
}

func (c *CameraSystem) handleMouse(pos engo.Point, action engo.Action, button engo.MouseButton, scroll float32) {
	// Follow the cursor up to this event before a release ends the drag
	if dx, dy, ok := c.drag.move(pos); ok {
		c.viewport.Pan(float64(dx), float64(dy))
		c.dragged = true
	}

	switch {
	case action == engo.Press && button == engo.MouseButtonLeft:
		c.drag.press(pos)
	case action == engo.Release && button == engo.MouseButtonLeft:
		c.endDrag()
	}

	if scroll != 0 {
		c.viewport.ZoomAt(zoomFactor(scroll), float64(pos.X), float64(pos.Y))
		c.publish()
	}
}

func (c *CameraSystem) endDrag() {
	c.drag.release()
	if c.dragged {
		c.dragged = false
		c.publish()
	}
}

func (c *CameraSystem) publish() {
	offset := c.viewport.Offset()
	c.bus.Publish(event.NewViewportEvent(c, c.viewport.Zoom(), offset.X, offset.Y))
}

// ZoomBy zooms around the window centre
func (c *CameraSystem) ZoomBy(factor float64) {
	c.viewport.ZoomBy(factor)
	c.publish()
}

// Reset restores the initial view
func (c *CameraSystem) Reset() {
	c.drag.release()
	c.dragged = false
	c.viewport.Reset()
	c.publish()
}

// Viewport returns the controlled viewport
func (c *CameraSystem) Viewport() *render.Viewport {
	return c.viewport
}

// zoomFactor converts wheel ticks into a multiplicative zoom
func zoomFactor(scroll float32) float64 {
	return math.Pow(wheelZoomBase, float64(scroll))
}

// dragTracker turns successive cursor positions into pan deltas while the
// button is held.
type dragTracker struct {
	active bool
	last   engo.Point
}

func (d *dragTracker) press(p engo.Point) {
	d.active = true
	d.last = p
}

func (d *dragTracker) release() {
	d.active = false
}

func (d *dragTracker) move(p engo.Point) (dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	dx, dy = p.X-d.last.X, p.Y-d.last.Y
	d.last = p
	return dx, dy, dx != 0 || dy != 0
}
