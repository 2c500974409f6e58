// pkg/render/viewport.go
package render

import (
	"math"

	"github.com/opd-ai/go-orrery/pkg/physics"
)

// Zoom limits
const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// Viewport maps world meters onto screen pixels. The world origin sits at
// the screen centre plus the pan offset; screen y grows downwards and world
// y is not flipped.
type Viewport struct {
	Width  int
	Height int
	Scale  float64 // pixels per meter at zoom 1

	offset physics.Vector2D // pan, in pixels
	zoom   float64
}

// NewViewport creates a viewport at zoom 1 with no pan
func NewViewport(width, height int, scale float64) *Viewport {
	return &Viewport{
		Width:  width,
		Height: height,
		Scale:  scale,
		zoom:   1,
	}
}

// Zoom returns the current zoom factor
func (v *Viewport) Zoom() float64 {
	return v.zoom
}

// Offset returns the pan offset in pixels
func (v *Viewport) Offset() physics.Vector2D {
	return v.offset
}

// PixelsPerMeter returns the effective scale
func (v *Viewport) PixelsPerMeter() float64 {
	return v.Scale * v.zoom
}

func (v *Viewport) center() (float64, float64) {
	return float64(v.Width) / 2, float64(v.Height) / 2
}

// WorldToScreen converts a world position in meters into pixel coordinates
func (v *Viewport) WorldToScreen(p physics.Vector2D) (x, y float64) {
	cx, cy := v.center()
	ppm := v.PixelsPerMeter()
	return p.X*ppm + cx + v.offset.X, p.Y*ppm + cy + v.offset.Y
}

// ScreenToWorld is the inverse of WorldToScreen
func (v *Viewport) ScreenToWorld(x, y float64) physics.Vector2D {
	cx, cy := v.center()
	ppm := v.PixelsPerMeter()
	return physics.Vector2D{
		X: (x - cx - v.offset.X) / ppm,
		Y: (y - cy - v.offset.Y) / ppm,
	}
}

// Pan shifts the view by a pixel delta
func (v *Viewport) Pan(dx, dy float64) {
	v.offset.X += dx
	v.offset.Y += dy
}

// ZoomBy multiplies the zoom by factor, keeping the screen centre fixed
func (v *Viewport) ZoomBy(factor float64) {
	cx, cy := v.center()
	v.ZoomAt(factor, cx, cy)
}

// ZoomAt multiplies the zoom by factor, keeping the world point under the
// pixel (x, y) fixed. The result is clamped to [MinZoom, MaxZoom].
func (v *Viewport) ZoomAt(factor, x, y float64) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return
	}
	anchor := v.ScreenToWorld(x, y)
	v.zoom = clampZoom(v.zoom * factor)

	cx, cy := v.center()
	ppm := v.PixelsPerMeter()
	v.offset = physics.Vector2D{
		X: x - cx - anchor.X*ppm,
		Y: y - cy - anchor.Y*ppm,
	}
}

// Reset restores zoom 1 and removes any pan
func (v *Viewport) Reset() {
	v.zoom = 1
	v.offset = physics.Vector2D{}
}

// Visible reports whether a pixel lies on screen, allowing margin pixels
// beyond each edge
func (v *Viewport) Visible(x, y, margin float64) bool {
	return x >= -margin && y >= -margin &&
		x < float64(v.Width)+margin && y < float64(v.Height)+margin
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
