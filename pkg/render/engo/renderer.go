// pkg/render/engo/renderer.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-orrery/pkg/render"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// Z layers, back to front
const (
	zStars float32 = iota - 1
	zGlow
	zTrail
	zBody
	zLabel
	zHUD = 10
)

const (
	trailDotSize = 2
	trailAlpha   = 160
	labelGap     = 4
	glowScale    = 2.5

	glowTextureRadius = 64
)

// spriteSink is the part of common.RenderSystem the renderer needs
type spriteSink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// GlowFactory returns the drawable used behind reference bodies
type GlowFactory func(radius int, c color.RGBA) common.Drawable

type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

func newSprite(sink spriteSink, drawable common.Drawable, z float32) *sprite {
	s := &sprite{
		BasicEntity: ecs.NewBasic(),
		RenderComponent: common.RenderComponent{
			Drawable: drawable,
			Color:    color.White,
		},
	}
	s.RenderComponent.SetZIndex(z)
	sink.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	return s
}

// place centres the sprite on (x, y) with the given size
func (s *sprite) place(x, y, w, h float64) {
	s.SpaceComponent.Position = engo.Point{X: float32(x - w/2), Y: float32(y - h/2)}
	s.SpaceComponent.Width = float32(w)
	s.SpaceComponent.Height = float32(h)
	s.Hidden = false
}

func (s *sprite) hide() {
	s.Hidden = true
}

type bodySprites struct {
	disc     *sprite
	glow     *sprite
	name     *sprite
	distance *sprite
	frame    uint64
}

func (b *bodySprites) hide() {
	for _, s := range []*sprite{b.disc, b.glow, b.name, b.distance} {
		if s != nil {
			s.hide()
		}
	}
}

// BodyRenderer implements render.Renderer on top of engo's render system.
// Entities are created the first time a body or trail dot is needed and are
// reused across frames; anything not drawn in a frame is hidden by Present.
type BodyRenderer struct {
	sink     spriteSink
	viewport *render.Viewport
	font     *common.Font
	glow     GlowFactory
	hud      *HUDSystem

	// ShowDistances adds a distance label under each non-reference body
	ShowDistances bool

	bodies    map[string]*bodySprites
	trail     []*sprite
	trailUsed int
	frame     uint64
}

// NewBodyRenderer creates a renderer drawing into sink. font may be nil, in
// which case no labels are drawn; glow may be nil to disable glows.
func NewBodyRenderer(sink spriteSink, viewport *render.Viewport, font *common.Font, glow GlowFactory) *BodyRenderer {
	return &BodyRenderer{
		sink:          sink,
		viewport:      viewport,
		font:          font,
		glow:          glow,
		ShowDistances: true,
		bodies:        make(map[string]*bodySprites),
	}
}

// SetHUD routes RenderStatus to hud
func (r *BodyRenderer) SetHUD(hud *HUDSystem) {
	r.hud = hud
}

// Clear implements render.Renderer
func (r *BodyRenderer) Clear() {
	r.frame++
	r.trailUsed = 0
}

// RenderBody implements render.Renderer
func (r *BodyRenderer) RenderBody(body simulation.BodyState, look render.Appearance) {
	r.renderTrail(body, look.Color)

	sprites := r.getOrCreateBody(body, look)
	sprites.frame = r.frame

	x, y := r.viewport.WorldToScreen(body.Position)
	radius := look.Radius
	if !r.viewport.Visible(x, y, radius*glowScale) {
		sprites.hide()
		return
	}

	size := 2 * radius
	sprites.disc.Color = look.Color
	sprites.disc.place(x, y, size, size)

	if sprites.glow != nil {
		sprites.glow.place(x, y, size*glowScale, size*glowScale)
	}

	if sprites.name != nil {
		sprites.name.Drawable = common.Text{Font: r.font, Text: body.Name}
		sprites.name.Position = engo.Point{
			X: float32(x + radius + labelGap),
			Y: float32(y - radius),
		}
		sprites.name.Hidden = false
	}

	if sprites.distance != nil {
		if r.ShowDistances {
			sprites.distance.Drawable = common.Text{Font: r.font, Text: render.FormatDistance(body.DistanceToReference)}
			sprites.distance.Position = engo.Point{
				X: float32(x + radius + labelGap),
				Y: float32(y - radius + 1.2*r.font.Size),
			}
			sprites.distance.Hidden = false
		} else {
			sprites.distance.hide()
		}
	}
}

func (r *BodyRenderer) renderTrail(body simulation.BodyState, c color.RGBA) {
	dot := color.RGBA{R: c.R, G: c.G, B: c.B, A: trailAlpha}
	for _, p := range body.Trajectory {
		x, y := r.viewport.WorldToScreen(p)
		if !r.viewport.Visible(x, y, trailDotSize) {
			continue
		}
		s := r.nextTrailDot()
		s.Color = dot
		s.place(x, y, trailDotSize, trailDotSize)
	}
}

func (r *BodyRenderer) nextTrailDot() *sprite {
	if r.trailUsed == len(r.trail) {
		r.trail = append(r.trail, newSprite(r.sink, common.Rectangle{}, zTrail))
	}
	s := r.trail[r.trailUsed]
	r.trailUsed++
	return s
}

func (r *BodyRenderer) getOrCreateBody(body simulation.BodyState, look render.Appearance) *bodySprites {
	if sprites, exists := r.bodies[body.Name]; exists {
		return sprites
	}

	sprites := &bodySprites{
		disc: newSprite(r.sink, common.Circle{}, zBody),
	}
	if body.IsReference() && r.glow != nil {
		sprites.glow = newSprite(r.sink, r.glow(glowTextureRadius, look.Color), zGlow)
	}
	if r.font != nil {
		sprites.name = newSprite(r.sink, common.Text{Font: r.font}, zLabel)
		if !body.IsReference() {
			sprites.distance = newSprite(r.sink, common.Text{Font: r.font}, zLabel)
		}
	}
	r.bodies[body.Name] = sprites
	return sprites
}

// RenderStatus implements render.Renderer
func (r *BodyRenderer) RenderStatus(status render.Status) {
	if r.hud != nil {
		r.hud.SetStatus(status)
	}
}

// Present implements render.Renderer. Engo draws the entities itself; this
// hides whatever the frame did not touch.
func (r *BodyRenderer) Present() error {
	for _, s := range r.trail[r.trailUsed:] {
		s.hide()
	}
	for _, sprites := range r.bodies {
		if sprites.frame != r.frame {
			sprites.hide()
		}
	}
	return nil
}

// TrailDots returns how many trail dots the last frame drew
func (r *BodyRenderer) TrailDots() int {
	return r.trailUsed
}
