// pkg/render/engo/assets.go
package engo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/font/gofont/goregular"
)

// FontURL is the virtual path the embedded Go Regular font is registered under
const FontURL = "fonts/goregular.ttf"

// DefaultFontSize is the point size used for HUD and body labels
const DefaultFontSize = 14

type glowKey struct {
	radius int
	color  color.RGBA
}

// AssetManager owns the font and the procedurally generated textures
type AssetManager struct {
	font  *common.Font
	glows map[glowKey]common.Drawable
}

// NewAssetManager creates a new asset manager
func NewAssetManager() *AssetManager {
	return &AssetManager{
		glows: make(map[glowKey]common.Drawable),
	}
}

// Preload registers the embedded font with engo's file loader. It must run
// from the scene's Preload.
func (am *AssetManager) Preload() error {
	if err := engo.Files.LoadReaderData(FontURL, bytes.NewReader(goregular.TTF)); err != nil {
		return fmt.Errorf("failed to preload font: %w", err)
	}
	return nil
}

// LoadAssets builds the font. Requires an OpenGL context.
func (am *AssetManager) LoadAssets(size float64) error {
	font := &common.Font{
		URL:  FontURL,
		FG:   color.White,
		Size: size,
	}
	if err := font.CreatePreloaded(); err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	am.font = font
	return nil
}

// Font returns the loaded font, or nil before LoadAssets succeeds
func (am *AssetManager) Font() *common.Font {
	return am.font
}

// GlowSprite returns the glow texture for radius and colour, creating it on
// first use.
func (am *AssetManager) GlowSprite(radius int, c color.RGBA) common.Drawable {
	key := glowKey{radius: radius, color: c}
	if sprite, exists := am.glows[key]; exists {
		return sprite
	}

	sprite := convertToEngoTexture(GlowImage(radius, c))
	am.glows[key] = sprite
	return sprite
}

// GlowImage draws a square image of side 2*radius holding a soft disc of
// colour c whose alpha falls off quadratically towards the rim.
func GlowImage(radius int, c color.RGBA) *image.NRGBA {
	if radius < 1 {
		radius = 1
	}
	size := 2 * radius

	img := createBaseImage(size, size)
	r := float64(radius)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-r, float64(y)+0.5-r) / r
			if d >= 1 {
				continue
			}
			falloff := (1 - d) * (1 - d)
			img.SetNRGBA(x, y, color.NRGBA{
				R: c.R,
				G: c.G,
				B: c.B,
				A: uint8(math.Round(falloff * float64(c.A))),
			})
		}
	}
	return img
}

// createBaseImage creates a transparent image with the specified dimensions.
func createBaseImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	return img
}

// convertToEngoTexture uploads an image as an engo texture.
func convertToEngoTexture(img *image.NRGBA) common.Drawable {
	texture := common.NewImageObject(img)
	return common.NewTextureSingle(texture)
}
