// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
)

// Button names
const (
	buttonPause   = "pause"
	buttonReset   = "reset"
	buttonZoomIn  = "zoomIn"
	buttonZoomOut = "zoomOut"
	buttonQuit    = "quit"
)

// Pauser is the part of the driver the input system controls
type Pauser interface {
	TogglePause() bool
}

// InputSystem handles the keyboard: Space toggles pause, R resets the view,
// Z and X zoom in and out, Escape quits.
type InputSystem struct {
	pauser Pauser
	camera *CameraSystem
	quit   func()
}

// NewInputSystem creates a new input system
func NewInputSystem(pauser Pauser, camera *CameraSystem) *InputSystem {
	return &InputSystem{
		pauser: pauser,
		camera: camera,
		quit:   engo.Exit,
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Priority runs input before anything else
func (is *InputSystem) Priority() int {
	return 30
}

// Update processes the buttons pressed this frame
func (is *InputSystem) Update(dt float32) {
	is.handle(func(name string) bool {
		return engo.Input.Button(name).JustPressed()
	})
}

func (is *InputSystem) handle(justPressed func(name string) bool) {
	if justPressed(buttonPause) {
		is.pauser.TogglePause()
	}
	if justPressed(buttonReset) {
		is.camera.Reset()
	}
	if justPressed(buttonZoomIn) {
		is.camera.ZoomBy(keyZoomStep)
	}
	if justPressed(buttonZoomOut) {
		is.camera.ZoomBy(1 / keyZoomStep)
	}
	if justPressed(buttonQuit) {
		is.quit()
	}
}

// SetupInputBindings registers the key bindings with engo
func SetupInputBindings() {
	engo.Input.RegisterButton(buttonPause, engo.KeySpace, engo.KeyP)
	engo.Input.RegisterButton(buttonReset, engo.KeyR)
	engo.Input.RegisterButton(buttonZoomIn, engo.KeyZ, engo.KeyEquals)
	engo.Input.RegisterButton(buttonZoomOut, engo.KeyX, engo.KeyDash)
	engo.Input.RegisterButton(buttonQuit, engo.KeyEscape)
}
