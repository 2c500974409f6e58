// pkg/render/engo/hud.go
package engo

import (
	"fmt"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-orrery/pkg/render"
)

const hudMargin = 10

// HUDSystem shows the day counter in the top-left corner and a centred
// PAUSED or HALTED overlay.
type HUDSystem struct {
	sink   spriteSink
	font   *common.Font
	width  float64
	height float64

	day     *sprite
	overlay *sprite
	panel   *sprite

	status  render.Status
	dirty   bool
	dayText string
	message string

	hudColor   color.Color
	panelColor color.Color
}

// NewHUDSystem creates a HUD for a width x height window. Without a font
// the HUD only tracks status.
func NewHUDSystem(sink spriteSink, font *common.Font, width, height int) *HUDSystem {
	return &HUDSystem{
		sink:       sink,
		font:       font,
		width:      float64(width),
		height:     float64(height),
		dirty:      true,
		hudColor:   color.RGBA{255, 255, 255, 255},
		panelColor: color.RGBA{0, 0, 0, 160},
	}
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

// Priority runs the HUD after the simulation system
func (hud *HUDSystem) Priority() int {
	return -10
}

// SetStatus records the status shown on the next update
func (hud *HUDSystem) SetStatus(status render.Status) {
	hud.status = status
	hud.dirty = true
}

// Status returns the last status set
func (hud *HUDSystem) Status() render.Status {
	return hud.status
}

// Update refreshes the HUD text when the status changed
func (hud *HUDSystem) Update(dt float32) {
	if !hud.dirty {
		return
	}
	hud.dirty = false

	dayText, message := hudText(hud.status)
	if dayText == hud.dayText && message == hud.message && hud.day != nil {
		return
	}
	hud.dayText, hud.message = dayText, message

	if hud.font == nil || hud.sink == nil {
		return
	}
	hud.renderDay()
	hud.renderOverlay()
}

func (hud *HUDSystem) renderDay() {
	if hud.day == nil {
		hud.day = newSprite(hud.sink, common.Text{Font: hud.font}, zHUD)
	}
	hud.day.Drawable = common.Text{Font: hud.font, Text: hud.dayText}
	hud.day.Color = hud.hudColor
	hud.day.Position = engo.Point{X: hudMargin, Y: hudMargin}
	hud.day.Hidden = false
}

func (hud *HUDSystem) renderOverlay() {
	if hud.message == "" {
		if hud.overlay != nil {
			hud.overlay.hide()
			hud.panel.hide()
		}
		return
	}

	if hud.overlay == nil {
		hud.panel = newSprite(hud.sink, common.Rectangle{}, zHUD)
		hud.overlay = newSprite(hud.sink, common.Text{Font: hud.font}, zHUD+1)
	}

	// Go Regular glyphs average a little over half the point size wide
	textWidth := 0.6 * hud.font.Size * float64(len(hud.message))
	textHeight := hud.font.Size
	cx, cy := hud.width/2, hud.height/2

	hud.panel.Color = hud.panelColor
	hud.panel.place(cx, cy, textWidth+4*hudMargin, textHeight+2*hudMargin)

	hud.overlay.Drawable = common.Text{Font: hud.font, Text: hud.message}
	hud.overlay.Color = hud.hudColor
	hud.overlay.Position = engo.Point{
		X: float32(cx - textWidth/2),
		Y: float32(cy - textHeight/2),
	}
	hud.overlay.Hidden = false
}

// hudText returns the corner counter and the overlay message for status
func hudText(status render.Status) (string, string) {
	day := fmt.Sprintf("Day %d", status.Days())
	switch {
	case status.Err != nil:
		return day, "HALTED: " + status.Err.Error()
	case status.Paused:
		return day, "PAUSED"
	default:
		return day, ""
	}
}
