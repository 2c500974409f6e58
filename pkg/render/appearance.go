// pkg/render/appearance.go
package render

import (
	"fmt"
	"image/color"

	"github.com/opd-ai/go-orrery/pkg/config"
)

// Appearance describes how a body is drawn
type Appearance struct {
	Color  color.RGBA
	Radius float64 // pixels
}

// DefaultAppearance is used for bodies without a configured look
var DefaultAppearance = Appearance{
	Color:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Radius: 8,
}

// Palette looks up appearances by body name
type Palette struct {
	byName   map[string]Appearance
	fallback Appearance
}

// NewPalette creates a palette from a name to appearance map
func NewPalette(appearances map[string]Appearance) *Palette {
	byName := make(map[string]Appearance, len(appearances))
	for name, a := range appearances {
		byName[name] = a
	}
	return &Palette{byName: byName, fallback: DefaultAppearance}
}

// PaletteFromConfig converts the configured appearances
func PaletteFromConfig(cfg config.PresentationConfig) (*Palette, error) {
	appearances := make(map[string]Appearance, len(cfg.Bodies))
	for name, a := range cfg.Bodies {
		c, err := config.ParseHexColor(a.Color)
		if err != nil {
			return nil, fmt.Errorf("appearance for %q: %w", name, err)
		}
		radius := a.Radius
		if radius == 0 {
			radius = DefaultAppearance.Radius
		}
		appearances[name] = Appearance{Color: c, Radius: radius}
	}
	return NewPalette(appearances), nil
}

// Lookup returns the appearance for name, or the fallback
func (p *Palette) Lookup(name string) Appearance {
	if p == nil {
		return DefaultAppearance
	}
	if a, ok := p.byName[name]; ok {
		return a
	}
	return p.fallback
}
