// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"
	"math/rand"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-orrery/pkg/config"
	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/logging"
	"github.com/opd-ai/go-orrery/pkg/render"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// MaxTrailDots caps the trail entities drawn per body each frame
const MaxTrailDots = 400

// OrreryScene is the engo scene showing a running simulation
type OrreryScene struct {
	world *ecs.World

	driver  *engine.Driver
	bus     *event.Bus
	cfg     config.PresentationConfig
	palette *render.Palette
	logger  *logging.Logger
	ctx     context.Context

	assets   *AssetManager
	viewport *render.Viewport
	renderer *BodyRenderer
	camera   *CameraSystem
	input    *InputSystem
	hud      *HUDSystem
	stars    *StarField
	sim      *SimulationSystem
}

// NewOrreryScene creates a scene drawing driver's simulation. View changes
// are published on bus, which may be nil.
func NewOrreryScene(driver *engine.Driver, bus *event.Bus, cfg config.PresentationConfig, palette *render.Palette, logger *logging.Logger) *OrreryScene {
	if logger == nil {
		logger = logging.Discard()
	}
	return &OrreryScene{
		driver:   driver,
		bus:      bus,
		cfg:      cfg,
		palette:  palette,
		logger:   logger,
		ctx:      logging.WithRunID(context.Background(), driver.RunID()),
		assets:   NewAssetManager(),
		viewport: render.NewViewport(cfg.Width, cfg.Height, cfg.Scale),
	}
}

// Type returns the scene type (required by Engo)
func (scene *OrreryScene) Type() string {
	return "OrreryScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *OrreryScene) Preload() {
	if err := scene.assets.Preload(); err != nil {
		scene.logger.Error(scene.ctx, "asset preload failed", err)
	}
}

// Setup is called when the scene starts (required by Engo)
func (scene *OrreryScene) Setup(u engo.Updater) {
	scene.world = u.(*ecs.World)
	common.SetBackground(color.Black)

	renderSystem := &common.RenderSystem{}
	scene.world.AddSystem(renderSystem)

	// Labels are optional; the simulation still runs without a font
	if err := scene.assets.LoadAssets(DefaultFontSize); err != nil {
		scene.logger.Warn(scene.ctx, "labels disabled", "error", err.Error())
	}

	seed := time.Now().UnixNano()
	scene.stars = NewStarField(renderSystem, GenerateStars(scene.cfg.Stars, scene.cfg.Width, scene.cfg.Height, rand.New(rand.NewSource(seed))))

	scene.renderer = NewBodyRenderer(renderSystem, scene.viewport, scene.assets.Font(), scene.assets.GlowSprite)
	scene.renderer.ShowDistances = scene.cfg.ShowDistances

	scene.hud = NewHUDSystem(renderSystem, scene.assets.Font(), scene.cfg.Width, scene.cfg.Height)
	scene.renderer.SetHUD(scene.hud)

	scene.camera = NewCameraSystem(scene.viewport, scene.bus)
	SetupInputBindings()
	scene.input = NewInputSystem(scene.driver, scene.camera)

	scene.sim = NewSimulationSystem(scene.driver, scene.renderer, scene.palette, scene.logger)

	scene.world.AddSystem(scene.input)
	scene.world.AddSystem(scene.camera)
	scene.world.AddSystem(scene.sim)
	scene.world.AddSystem(scene.hud)

	scene.logger.Info(scene.ctx, "scene ready",
		"width", scene.cfg.Width,
		"height", scene.cfg.Height,
		"stars", scene.stars.Len(),
	)
}

// Exit is called when the window closes (required by Engo)
func (scene *OrreryScene) Exit() {
	scene.driver.Stop()
}

// SimulationSystem steps the driver once per engine frame and redraws the
// bodies through a render.Renderer. Stepping happens on the engine's own
// goroutine.
type SimulationSystem struct {
	driver   *engine.Driver
	renderer render.Renderer
	palette  *render.Palette
	logger   *logging.Logger
	ctx      context.Context

	// MaxTrail caps the trail points handed to the renderer per body
	MaxTrail int

	stepReported   bool
	renderReported bool
}

// NewSimulationSystem creates a new simulation system
func NewSimulationSystem(driver *engine.Driver, renderer render.Renderer, palette *render.Palette, logger *logging.Logger) *SimulationSystem {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SimulationSystem{
		driver:   driver,
		renderer: renderer,
		palette:  palette,
		logger:   logger,
		ctx:      logging.WithRunID(context.Background(), driver.RunID()),
		MaxTrail: MaxTrailDots,
	}
}

// Remove satisfies the ecs.System interface
func (s *SimulationSystem) Remove(basic ecs.BasicEntity) {}

// Priority runs the step before the HUD reads the status
func (s *SimulationSystem) Priority() int {
	return 10
}

// Update advances the simulation and draws the frame
func (s *SimulationSystem) Update(dt float32) {
	if err := s.driver.Update(); err != nil && !s.stepReported {
		s.stepReported = true
		s.logger.Warn(s.ctx, "simulation no longer stepping", "error", err.Error())
	}

	if err := s.Draw(); err != nil && !s.renderReported {
		s.renderReported = true
		s.logger.Error(s.ctx, "frame render failed", err)
	}
}

// Draw renders the current state without stepping
func (s *SimulationSystem) Draw() error {
	var (
		bodies []simulation.BodyState
		status render.Status
	)
	s.driver.View(func(sim *simulation.Simulation) {
		bodies, status = render.SampleFrame(sim, s.MaxTrail)
	})
	status.Paused = s.driver.Paused()
	status.Err = s.driver.Err()

	return render.DrawFrame(s.renderer, bodies, status, s.palette)
}
