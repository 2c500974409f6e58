// pkg/config/config.go
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// Config contains everything needed to set up and present a simulation run
type Config struct {
	Simulation    SimulationConfig    `json:"simulation"`
	Bodies        []BodyConfig        `json:"bodies"`
	Presentation  PresentationConfig  `json:"presentation"`
	Observability ObservabilityConfig `json:"observability"`
}

// SimulationConfig contains integration settings
type SimulationConfig struct {
	TimeStep        float64 `json:"timeStep"` // seconds
	TrajectoryLimit int     `json:"trajectoryLimit"`
	MinSeparation   float64 `json:"minSeparation"` // meters
	Order           string  `json:"order"`
	SingleReference bool    `json:"singleReference"`
}

// BodyConfig describes one body in SI units
type BodyConfig struct {
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Mass      float64 `json:"mass"`
	Reference bool    `json:"reference,omitempty"`
	AutoOrbit bool    `json:"autoOrbit,omitempty"`
}

// Position returns the configured position as a vector
func (b BodyConfig) Position() physics.Vector2D {
	return physics.Vector2D{X: b.X, Y: b.Y}
}

// Velocity returns the configured velocity as a vector
func (b BodyConfig) Velocity() physics.Vector2D {
	return physics.Vector2D{X: b.VX, Y: b.VY}
}

// Role maps the reference flag onto a simulation role
func (b BodyConfig) Role() simulation.Role {
	if b.Reference {
		return simulation.RoleReference
	}
	return simulation.RoleBody
}

// PresentationConfig contains window and drawing settings
type PresentationConfig struct {
	Width         int                         `json:"width"`
	Height        int                         `json:"height"`
	Scale         float64                     `json:"scale"` // pixels per meter
	FPS           int                         `json:"fps"`
	Stars         int                         `json:"stars"`
	ShowDistances bool                        `json:"showDistances"`
	Bodies        map[string]AppearanceConfig `json:"bodies,omitempty"`
}

// AppearanceConfig controls how one body is drawn
type AppearanceConfig struct {
	Color  string  `json:"color"`  // #rrggbb
	Radius float64 `json:"radius"` // pixels
}

// ObservabilityConfig contains the headless HTTP settings
type ObservabilityConfig struct {
	ListenAddress string `json:"listenAddress,omitempty"`
	// ShutdownTimeout bounds the HTTP server drain; only set from the environment.
	ShutdownTimeout time.Duration `json:"-"`
}

// DefaultShutdownTimeout is used when ShutdownTimeout is unset.
const DefaultShutdownTimeout = 5 * time.Second

// GracePeriod returns the shutdown timeout, or the default when unset
func (o ObservabilityConfig) GracePeriod() time.Duration {
	if o.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}
	return o.ShutdownTimeout
}

// Presentation defaults
const (
	DefaultWidth  = 800
	DefaultHeight = 800
	DefaultFPS    = 60
	DefaultStars  = 150
)

// DefaultScale draws one astronomical unit as 200 pixels.
const DefaultScale = 200 / physics.AU

// LoadConfig loads a configuration from a file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON. Zero-valued settings
// fall back to the defaults; a missing bodies list selects the default
// solar system.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var config Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// SaveConfig saves a configuration to a file, as YAML or JSON by extension
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: nil config")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// DefaultConfig returns the inner solar system: the Sun and the four
// terrestrial planets, one simulated day per step.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TimeStep: physics.Day,
			Order:    simulation.OrderSequential.String(),
		},
		Bodies: DefaultBodies(),
		Presentation: PresentationConfig{
			Width:         DefaultWidth,
			Height:        DefaultHeight,
			Scale:         DefaultScale,
			FPS:           DefaultFPS,
			Stars:         DefaultStars,
			ShowDistances: true,
			Bodies:        DefaultAppearances(),
		},
	}
}

// DefaultBodies returns the default solar system bodies
func DefaultBodies() []BodyConfig {
	return []BodyConfig{
		{Name: "Sun", Mass: 1.98892e30, Reference: true},
		{Name: "Earth", X: -1 * physics.AU, VY: 29.783 * 1000, Mass: 5.9742e24},
		{Name: "Mars", X: -1.524 * physics.AU, VY: 24.077 * 1000, Mass: 6.39e23},
		{Name: "Mercury", X: 0.387 * physics.AU, VY: -47.4 * 1000, Mass: 3.30e23},
		{Name: "Venus", X: 0.723 * physics.AU, VY: -35.02 * 1000, Mass: 4.8685e24},
	}
}

// DefaultAppearances returns colours and pixel radii for the default bodies
func DefaultAppearances() map[string]AppearanceConfig {
	return map[string]AppearanceConfig{
		"Sun":     {Color: "#ffff00", Radius: 30},
		"Earth":   {Color: "#6495ed", Radius: 16},
		"Mars":    {Color: "#bc2732", Radius: 12},
		"Mercury": {Color: "#504e51", Radius: 8},
		"Venus":   {Color: "#ffffff", Radius: 14},
	}
}

func (c *Config) applyDefaults() {
	if c.Simulation.TimeStep == 0 {
		c.Simulation.TimeStep = physics.Day
	}
	if c.Bodies == nil {
		c.Bodies = DefaultBodies()
		if c.Presentation.Bodies == nil {
			c.Presentation.Bodies = DefaultAppearances()
		}
	}
	if c.Presentation.Width == 0 {
		c.Presentation.Width = DefaultWidth
	}
	if c.Presentation.Height == 0 {
		c.Presentation.Height = DefaultHeight
	}
	if c.Presentation.Scale == 0 {
		c.Presentation.Scale = DefaultScale
	}
	if c.Presentation.FPS == 0 {
		c.Presentation.FPS = DefaultFPS
	}
}

// SimulationOptions converts the simulation section into simulation.Options
func (c *Config) SimulationOptions() (simulation.Options, error) {
	order, err := simulation.ParseOrder(c.Simulation.Order)
	if err != nil {
		return simulation.Options{}, &ValidationError{Field: "simulation.order", Message: err.Error()}
	}
	return simulation.Options{
		TimeStep:        c.Simulation.TimeStep,
		TrajectoryLimit: c.Simulation.TrajectoryLimit,
		MinSeparation:   c.Simulation.MinSeparation,
		Order:           order,
		SingleReference: c.Simulation.SingleReference,
	}, nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validate checks the configuration and returns the first problem found
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}
	if err := c.validateSimulation(); err != nil {
		return err
	}
	if err := c.validateBodies(); err != nil {
		return err
	}
	return c.validatePresentation()
}

func (c *Config) validateSimulation() error {
	s := c.Simulation
	switch {
	case !(s.TimeStep > 0) || math.IsInf(s.TimeStep, 0):
		return &ValidationError{Field: "simulation.timeStep", Message: "must be a positive number of seconds"}
	case s.TrajectoryLimit < 0:
		return &ValidationError{Field: "simulation.trajectoryLimit", Message: "must not be negative"}
	case s.MinSeparation < 0 || math.IsNaN(s.MinSeparation):
		return &ValidationError{Field: "simulation.minSeparation", Message: "must not be negative"}
	}
	if _, err := simulation.ParseOrder(s.Order); err != nil {
		return &ValidationError{Field: "simulation.order", Message: err.Error()}
	}
	return nil
}

func (c *Config) validateBodies() error {
	seen := make(map[string]bool, len(c.Bodies))
	references := 0
	for i, b := range c.Bodies {
		field := fmt.Sprintf("bodies[%d]", i)
		if strings.TrimSpace(b.Name) == "" {
			return &ValidationError{Field: field + ".name", Message: "must not be empty"}
		}
		if seen[b.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate body name %q", b.Name)}
		}
		seen[b.Name] = true
		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return &ValidationError{Field: field + ".mass", Message: "must be a positive finite number of kilograms"}
		}
		if !b.Position().IsFinite() || !b.Velocity().IsFinite() {
			return &ValidationError{Field: field, Message: "position and velocity must be finite"}
		}
		if b.Reference {
			references++
		}
	}
	if c.Simulation.SingleReference && references > 1 {
		return &ValidationError{Field: "bodies", Message: "more than one reference body with singleReference set"}
	}
	return nil
}

func (c *Config) validatePresentation() error {
	p := c.Presentation
	switch {
	case p.Width < 1 || p.Width > 8192:
		return &ValidationError{Field: "presentation.width", Message: "must be between 1 and 8192"}
	case p.Height < 1 || p.Height > 8192:
		return &ValidationError{Field: "presentation.height", Message: "must be between 1 and 8192"}
	case !(p.Scale > 0) || math.IsInf(p.Scale, 0):
		return &ValidationError{Field: "presentation.scale", Message: "must be positive"}
	case p.FPS < 1 || p.FPS > 240:
		return &ValidationError{Field: "presentation.fps", Message: "must be between 1 and 240"}
	case p.Stars < 0:
		return &ValidationError{Field: "presentation.stars", Message: "must not be negative"}
	}
	for name, a := range p.Bodies {
		if _, err := ParseHexColor(a.Color); err != nil {
			return &ValidationError{Field: "presentation.bodies." + name + ".color", Message: err.Error()}
		}
		if a.Radius < 0 {
			return &ValidationError{Field: "presentation.bodies." + name + ".radius", Message: "must not be negative"}
		}
	}
	return nil
}

// ParseHexColor parses "#rrggbb" (or "rrggbb") into an opaque colour
func ParseHexColor(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q is not in #rrggbb form", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q is not in #rrggbb form", s)
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, nil
}
