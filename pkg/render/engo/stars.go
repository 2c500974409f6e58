// pkg/render/engo/stars.go
package engo

import (
	"image/color"
	"math/rand"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
)

// Star is one background point in screen pixels
type Star struct {
	X, Y       float32
	Size       float32
	Brightness uint8
}

// GenerateStars scatters n stars over a width x height window
func GenerateStars(n, width, height int, rng *rand.Rand) []Star {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	stars := make([]Star, n)
	for i := range stars {
		stars[i] = Star{
			X:          rng.Float32() * float32(width),
			Y:          rng.Float32() * float32(height),
			Size:       1 + float32(rng.Intn(2)),
			Brightness: uint8(96 + rng.Intn(160)),
		}
	}
	return stars
}

// StarField is the static decoration behind the bodies
type StarField struct {
	sprites []*sprite
}

// NewStarField adds one entity per star to sink
func NewStarField(sink spriteSink, stars []Star) *StarField {
	field := &StarField{sprites: make([]*sprite, 0, len(stars))}
	for _, star := range stars {
		s := newSprite(sink, common.Rectangle{}, zStars)
		s.Color = color.Gray{Y: star.Brightness}
		s.Position = engo.Point{X: star.X, Y: star.Y}
		s.Width, s.Height = star.Size, star.Size
		field.sprites = append(field.sprites, s)
	}
	return field
}

// Len returns the number of stars
func (f *StarField) Len() int {
	return len(f.sprites)
}
