// pkg/engine/driver.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-orrery/pkg/config"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/logging"
	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// ErrStopped is returned by Update after Stop.
var ErrStopped = errors.New("driver stopped")

// StepObserver is notified after every step attempt. Calls happen on the
// stepping goroutine with no driver lock held.
type StepObserver interface {
	StepCompleted(took time.Duration, stats Stats)
	StepFailed(err error)
}

// State is a detached copy of everything a frame needs.
type State struct {
	Tick    uint64
	Paused  bool
	Elapsed float64 // simulated seconds
	Bodies  []simulation.BodyState
}

// Days returns the simulated time in days.
func (s State) Days() float64 {
	return s.Elapsed / physics.Day
}

// Stats summarises the driver without copying trajectories.
type Stats struct {
	Tick             uint64
	Elapsed          float64
	Bodies           int
	TrajectoryPoints int
	NonFinite        int // bodies whose position or velocity is NaN or infinite
	Paused           bool
	Stopped          bool
	Err              error
	LastStep         time.Duration
}

// Driver is the host loop around a Simulation. It owns pause state,
// serialises stepping against readers and publishes lifecycle events.
// All methods are safe for concurrent use.
type Driver struct {
	sim    *simulation.Simulation
	bus    *event.Bus
	logger *logging.Logger
	ctx    context.Context

	mu       sync.RWMutex
	paused   bool
	started  bool
	stopped  bool
	err      error
	lastStep time.Duration
	observer StepObserver
}

// NewDriver builds the configured bodies into a new simulation. A nil bus
// disables events and a nil logger discards records.
func NewDriver(cfg *config.Config, bus *event.Bus, logger *logging.Logger) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("engine: nil config")
	}
	sim, err := BuildSimulation(cfg)
	if err != nil {
		return nil, err
	}
	return NewDriverFor(sim, bus, logger), nil
}

// NewDriverFor wraps an existing simulation.
func NewDriverFor(sim *simulation.Simulation, bus *event.Bus, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{
		sim:    sim,
		bus:    bus,
		logger: logger,
		ctx:    logging.WithRunID(context.Background(), ""),
	}
}

// BuildSimulation creates a simulation from the configured options and
// bodies, in configuration order. Bodies marked autoOrbit with zero velocity
// are given a circular counter-clockwise orbit about the first reference body.
func BuildSimulation(cfg *config.Config) (*simulation.Simulation, error) {
	opts, err := cfg.SimulationOptions()
	if err != nil {
		return nil, err
	}
	sim, err := simulation.New(opts)
	if err != nil {
		return nil, err
	}

	var central *config.BodyConfig
	for i := range cfg.Bodies {
		if cfg.Bodies[i].Reference {
			central = &cfg.Bodies[i]
			break
		}
	}

	for i, bc := range cfg.Bodies {
		velocity := bc.Velocity()
		if bc.AutoOrbit && velocity == (physics.Vector2D{}) && central != nil && &cfg.Bodies[i] != central {
			velocity = OrbitalVelocity(bc.Position(), central.Position(), central.Velocity(), central.Mass)
		}
		body := simulation.NewBody(bc.Name, bc.Role(), bc.Mass, bc.Position(), velocity)
		if err := sim.AddBody(body); err != nil {
			return nil, fmt.Errorf("add body %q: %w", bc.Name, err)
		}
	}
	return sim, nil
}

// OrbitalVelocity returns the velocity that puts a body at position on a
// circular counter-clockwise orbit around a central mass, in the frame
// where the centre moves with centralVelocity.
func OrbitalVelocity(position, centralPosition, centralVelocity physics.Vector2D, centralMass float64) physics.Vector2D {
	offset := position.Sub(centralPosition)
	distance := offset.Length()
	if distance == 0 {
		return centralVelocity
	}
	speed := physics.CircularOrbitSpeed(centralMass, distance)
	direction := offset.Perpendicular().Scale(1 / distance)
	return centralVelocity.Add(direction.Scale(speed))
}

// RunID identifies this driver in log records.
func (d *Driver) RunID() string {
	return logging.GetRunID(d.ctx)
}

// SetObserver installs a step observer; nil removes it.
func (d *Driver) SetObserver(observer StepObserver) {
	d.mu.Lock()
	d.observer = observer
	d.mu.Unlock()
}

// Start publishes SimulationStarted once. Update calls it implicitly.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	opts := d.sim.Options()
	bodies := d.sim.Len()
	d.mu.Unlock()

	d.logger.Info(d.ctx, "simulation started",
		"bodies", bodies,
		"time_step", opts.TimeStep,
		"order", opts.Order.String(),
		"trajectory_limit", opts.TrajectoryLimit,
	)
	d.bus.Publish(&event.BaseEvent{EventType: event.SimulationStarted, Source: d})
}

// Stop halts the driver. Further Update calls return ErrStopped.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	stats := d.statsLocked()
	d.mu.Unlock()

	d.logger.Info(d.ctx, "simulation stopped",
		"steps", stats.Tick,
		"days", stats.Elapsed/physics.Day,
	)
	d.bus.Publish(&event.BaseEvent{EventType: event.SimulationStopped, Source: d})
}

// Update advances the simulation by one step unless paused. After a failed
// step the driver stays halted and every later call returns the same error.
func (d *Driver) Update() error {
	d.Start()

	d.mu.Lock()
	if d.err != nil {
		err := d.err
		d.mu.Unlock()
		return err
	}
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	if d.paused {
		d.mu.Unlock()
		return nil
	}

	begin := time.Now()
	stepErr := d.sim.Step()
	d.lastStep = time.Since(begin)
	if stepErr != nil {
		d.err = logging.WrapError(stepErr, "simulation halted")
	}
	stats := d.statsLocked()
	observer := d.observer
	d.mu.Unlock()

	if stepErr != nil {
		d.logger.Error(d.ctx, "step failed", stepErr, "tick", stats.Tick)
		if observer != nil {
			observer.StepFailed(stepErr)
		}
		d.bus.Publish(event.NewFailureEvent(d, stats.Tick, stats.Err))
		return stats.Err
	}

	if observer != nil {
		observer.StepCompleted(stats.LastStep, stats)
	}
	d.bus.Publish(event.NewStepEvent(d, stats.Tick, stats.Elapsed))
	return nil
}

// Err returns the error that halted the simulation, if any.
func (d *Driver) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Paused reports whether stepping is suspended.
func (d *Driver) Paused() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.paused
}

// SetPaused suspends or resumes stepping. Events are only published when
// the state changes.
func (d *Driver) SetPaused(paused bool) {
	d.mu.Lock()
	changed := d.paused != paused
	d.paused = paused
	tick := d.sim.Steps()
	d.mu.Unlock()

	if changed {
		d.publishPause(paused, tick)
	}
}

func (d *Driver) publishPause(paused bool, tick uint64) {
	eventType := event.SimulationResumed
	if paused {
		eventType = event.SimulationPaused
	}
	d.logger.Debug(d.ctx, "pause toggled", "paused", paused, "tick", tick)
	d.bus.Publish(&event.BaseEvent{EventType: eventType, Source: d})
}

// TogglePause flips the pause state and returns the new value.
func (d *Driver) TogglePause() bool {
	d.mu.Lock()
	d.paused = !d.paused
	paused := d.paused
	tick := d.sim.Steps()
	d.mu.Unlock()

	d.publishPause(paused, tick)
	return paused
}

// State returns a deep copy of the current simulation state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return State{
		Tick:    d.sim.Steps(),
		Paused:  d.paused,
		Elapsed: d.sim.Elapsed(),
		Bodies:  d.sim.Snapshot(),
	}
}

// View calls fn with the live simulation under the read lock. fn must not
// retain the simulation or its bodies, and must not call back into the driver.
func (d *Driver) View(fn func(sim *simulation.Simulation)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.sim)
}

// Stats returns counters without copying trajectories.
func (d *Driver) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.statsLocked()
}

func (d *Driver) statsLocked() Stats {
	stats := Stats{
		Tick:     d.sim.Steps(),
		Elapsed:  d.sim.Elapsed(),
		Bodies:   d.sim.Len(),
		Paused:   d.paused,
		Stopped:  d.stopped,
		Err:      d.err,
		LastStep: d.lastStep,
	}
	for _, b := range d.sim.Bodies() {
		stats.TrajectoryPoints += b.Trajectory().Len()
		if !b.Position().IsFinite() || !b.Velocity().IsFinite() {
			stats.NonFinite++
		}
	}
	return stats
}

// Run steps once every interval and calls onFrame after each step, until
// ctx is cancelled or a step fails. onFrame receives cheap counters; use
// View to draw. Cancellation is a normal exit and returns nil.
func (d *Driver) Run(ctx context.Context, interval time.Duration, onFrame func(Stats)) error {
	if interval <= 0 {
		return fmt.Errorf("engine: frame interval must be positive, got %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer d.Stop()

	d.Start()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// select picks at random when both are ready
			if ctx.Err() != nil {
				return nil
			}
			if err := d.Update(); err != nil {
				return err
			}
			if onFrame != nil {
				onFrame(d.Stats())
			}
		}
	}
}

// RunSteps performs n steps as fast as possible, ignoring pause. It stops
// early when ctx is cancelled and returns ctx.Err().
func (d *Driver) RunSteps(ctx context.Context, n int) error {
	d.SetPaused(false)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Update(); err != nil {
			return err
		}
	}
	return nil
}
