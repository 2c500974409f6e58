// pkg/engine/driver_test.go
package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-orrery/pkg/config"
	"github.com/opd-ai/go-orrery/pkg/event"
	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// recorder counts published events by type.
type recorder struct {
	mu     sync.Mutex
	counts map[event.Type]int
	last   map[event.Type]event.Event
}

func newRecorder(bus *event.Bus, types ...event.Type) *recorder {
	r := &recorder{counts: map[event.Type]int{}, last: map[event.Type]event.Event{}}
	for _, typ := range types {
		bus.Subscribe(typ, func(e event.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.counts[e.GetType()]++
			r.last[e.GetType()] = e
		})
	}
	return r
}

func (r *recorder) count(typ event.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[typ]
}

func allTypes() []event.Type {
	return []event.Type{
		event.SimulationStarted, event.SimulationStopped, event.SimulationPaused,
		event.SimulationResumed, event.SimulationFailed, event.StepCompleted,
	}
}

func coincidentConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bodies = []config.BodyConfig{
		{Name: "A", X: 1e9, Mass: 1e24},
		{Name: "B", X: 1e9, Mass: 1e24},
	}
	return cfg
}

type countingObserver struct {
	mu       sync.Mutex
	steps    int
	failures int
	last     Stats
}

func (o *countingObserver) StepCompleted(took time.Duration, stats Stats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps++
	o.last = stats
}

func (o *countingObserver) StepFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func TestNewDriver_DefaultConfig(t *testing.T) {
	driver, err := NewDriver(config.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}

	state := driver.State()
	if state.Tick != 0 || state.Elapsed != 0 || state.Paused {
		t.Errorf("unexpected initial state %+v", state)
	}
	if len(state.Bodies) != 5 {
		t.Fatalf("expected 5 bodies, got %d", len(state.Bodies))
	}
	names := []string{"Sun", "Earth", "Mars", "Mercury", "Venus"}
	for i, name := range names {
		if state.Bodies[i].Name != name {
			t.Errorf("body %d = %s, want %s", i, state.Bodies[i].Name, name)
		}
	}
	if !state.Bodies[0].IsReference() {
		t.Error("expected the Sun to be the reference body")
	}
	if len(driver.RunID()) != 16 {
		t.Errorf("unexpected run ID %q", driver.RunID())
	}
}

func TestNewDriver_Errors(t *testing.T) {
	if _, err := NewDriver(nil, nil, nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := config.DefaultConfig()
	cfg.Simulation.Order = "sideways"
	if _, err := NewDriver(cfg, nil, nil); err == nil {
		t.Error("expected error for unknown order")
	}

	cfg = config.DefaultConfig()
	cfg.Simulation.SingleReference = true
	cfg.Bodies[1].Reference = true
	if _, err := NewDriver(cfg, nil, nil); !errors.Is(err, simulation.ErrDuplicateReference) {
		t.Errorf("expected ErrDuplicateReference, got %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.Bodies[2].Mass = -1
	var invalid *simulation.InvalidBodyError
	if _, err := NewDriver(cfg, nil, nil); !errors.As(err, &invalid) {
		t.Errorf("expected InvalidBodyError, got %v", err)
	}
}

func TestBuildSimulation_AutoOrbit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bodies = []config.BodyConfig{
		{Name: "Sun", Mass: 1.98892e30, Reference: true},
		{Name: "Earth", X: physics.AU, Mass: 5.9742e24, AutoOrbit: true},
		{Name: "Kept", Y: physics.AU, VX: 10, Mass: 1e20, AutoOrbit: true},
	}

	sim, err := BuildSimulation(cfg)
	if err != nil {
		t.Fatalf("BuildSimulation failed: %v", err)
	}

	earth, _ := sim.Body("Earth")
	want := physics.CircularOrbitSpeed(1.98892e30, physics.AU)
	v := earth.Velocity()
	if v.X != 0 || math.Abs(v.Y-want) > 1e-9 {
		t.Errorf("Earth velocity = %v, want (0, %v)", v, want)
	}

	kept, _ := sim.Body("Kept")
	if kept.Velocity() != (physics.Vector2D{X: 10}) {
		t.Errorf("explicit velocity was replaced: %v", kept.Velocity())
	}

	sun, _ := sim.Body("Sun")
	if sun.Velocity() != (physics.Vector2D{}) {
		t.Errorf("central body velocity changed: %v", sun.Velocity())
	}
}

func TestOrbitalVelocity(t *testing.T) {
	tests := []struct {
		name     string
		position physics.Vector2D
		dir      physics.Vector2D
	}{
		{"positive x", physics.Vector2D{X: physics.AU}, physics.Vector2D{Y: 1}},
		{"negative x", physics.Vector2D{X: -physics.AU}, physics.Vector2D{Y: -1}},
		{"positive y", physics.Vector2D{Y: physics.AU}, physics.Vector2D{X: -1}},
	}

	centralVelocity := physics.Vector2D{X: 3, Y: 4}
	speed := physics.CircularOrbitSpeed(1.98892e30, physics.AU)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrbitalVelocity(tt.position, physics.Vector2D{}, centralVelocity, 1.98892e30)
			want := centralVelocity.Add(tt.dir.Scale(speed))
			if got.Sub(want).Length() > 1e-9 {
				t.Errorf("OrbitalVelocity() = %v, want %v", got, want)
			}
		})
	}

	if got := OrbitalVelocity(physics.Vector2D{}, physics.Vector2D{}, centralVelocity, 1e30); got != centralVelocity {
		t.Errorf("coincident body should inherit the central velocity, got %v", got)
	}
}

func TestDriver_UpdateAdvancesAndPublishes(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, allTypes()...)
	driver, err := NewDriver(config.DefaultConfig(), bus, nil)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	observer := &countingObserver{}
	driver.SetObserver(observer)

	for i := 0; i < 3; i++ {
		if err := driver.Update(); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}

	state := driver.State()
	if state.Tick != 3 {
		t.Errorf("expected tick 3, got %d", state.Tick)
	}
	if state.Elapsed != 3*physics.Day || state.Days() != 3 {
		t.Errorf("expected 3 days elapsed, got %v s", state.Elapsed)
	}
	if rec.count(event.SimulationStarted) != 1 {
		t.Errorf("expected one start event, got %d", rec.count(event.SimulationStarted))
	}
	if rec.count(event.StepCompleted) != 3 {
		t.Errorf("expected 3 step events, got %d", rec.count(event.StepCompleted))
	}
	if step, ok := rec.last[event.StepCompleted].(*event.StepEvent); !ok || step.Tick != 3 {
		t.Errorf("unexpected last step event %#v", rec.last[event.StepCompleted])
	}
	if observer.steps != 3 || observer.last.Tick != 3 {
		t.Errorf("observer saw %d steps, last tick %d", observer.steps, observer.last.Tick)
	}

	stats := driver.Stats()
	if stats.Bodies != 5 || stats.TrajectoryPoints != 15 || stats.NonFinite != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDriver_Pause(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, allTypes()...)
	driver, _ := NewDriver(config.DefaultConfig(), bus, nil)

	driver.SetPaused(true)
	driver.SetPaused(true)
	if !driver.Paused() {
		t.Fatal("expected paused")
	}
	if err := driver.Update(); err != nil {
		t.Fatalf("Update while paused failed: %v", err)
	}
	if driver.State().Tick != 0 {
		t.Error("paused driver advanced")
	}
	if !driver.State().Paused {
		t.Error("state should report paused")
	}

	if driver.TogglePause() {
		t.Error("TogglePause should resume")
	}
	if err := driver.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if driver.State().Tick != 1 {
		t.Errorf("expected tick 1, got %d", driver.State().Tick)
	}

	if rec.count(event.SimulationPaused) != 1 || rec.count(event.SimulationResumed) != 1 {
		t.Errorf("pause events: paused=%d resumed=%d",
			rec.count(event.SimulationPaused), rec.count(event.SimulationResumed))
	}
}

func TestDriver_ConcurrentTogglePause(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, event.SimulationPaused, event.SimulationResumed)
	driver, _ := NewDriver(config.DefaultConfig(), bus, nil)

	const toggles = 200
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		paused int
	)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if driver.TogglePause() {
				mu.Lock()
				paused++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// every toggle flips the state exactly once
	if driver.Paused() {
		t.Error("an even number of toggles should leave the driver running")
	}
	if paused != toggles/2 {
		t.Errorf("%d toggles returned paused, want %d", paused, toggles/2)
	}
	if rec.count(event.SimulationPaused) != toggles/2 || rec.count(event.SimulationResumed) != toggles/2 {
		t.Errorf("pause events: paused=%d resumed=%d, want %d each",
			rec.count(event.SimulationPaused), rec.count(event.SimulationResumed), toggles/2)
	}
}

func TestDriver_FailureHalts(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, allTypes()...)
	driver, err := NewDriver(coincidentConfig(), bus, nil)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	observer := &countingObserver{}
	driver.SetObserver(observer)
	before := driver.State()

	err = driver.Update()
	var degenerate *simulation.DegenerateDistanceError
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateDistanceError, got %v", err)
	}
	if !errors.Is(err, physics.ErrZeroSeparation) {
		t.Error("expected error to match ErrZeroSeparation")
	}

	if again := driver.Update(); again != err {
		t.Errorf("halted driver returned %v, want %v", again, err)
	}
	if driver.Err() != err {
		t.Errorf("Err() = %v", driver.Err())
	}

	after := driver.State()
	if after.Tick != 0 {
		t.Errorf("failed step advanced the tick to %d", after.Tick)
	}
	for i := range before.Bodies {
		if after.Bodies[i].Position != before.Bodies[i].Position {
			t.Errorf("body %s moved after a failed step", after.Bodies[i].Name)
		}
	}

	if rec.count(event.SimulationFailed) != 1 {
		t.Errorf("expected one failure event, got %d", rec.count(event.SimulationFailed))
	}
	failure, ok := rec.last[event.SimulationFailed].(*event.FailureEvent)
	if !ok || !errors.As(failure.Err, &degenerate) {
		t.Errorf("unexpected failure event %#v", rec.last[event.SimulationFailed])
	}
	if observer.failures != 1 || observer.steps != 0 {
		t.Errorf("observer saw %d failures and %d steps", observer.failures, observer.steps)
	}
	if driver.Stats().Err == nil {
		t.Error("stats should carry the error")
	}
}

func TestDriver_Stop(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, allTypes()...)
	driver, _ := NewDriver(config.DefaultConfig(), bus, nil)

	driver.Start()
	driver.Stop()
	driver.Stop()

	if err := driver.Update(); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if rec.count(event.SimulationStopped) != 1 {
		t.Errorf("expected one stop event, got %d", rec.count(event.SimulationStopped))
	}
	if !driver.Stats().Stopped {
		t.Error("stats should report stopped")
	}
}

func TestDriver_StateIsDetached(t *testing.T) {
	driver, _ := NewDriver(config.DefaultConfig(), nil, nil)
	if err := driver.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	state := driver.State()
	state.Bodies[1].Position = physics.Vector2D{}
	state.Bodies[1].Trajectory[0] = physics.Vector2D{}

	fresh := driver.State()
	if fresh.Bodies[1].Position == (physics.Vector2D{}) {
		t.Error("State exposed live body position")
	}
	if fresh.Bodies[1].Trajectory[0] == (physics.Vector2D{}) {
		t.Error("State exposed live trajectory storage")
	}
}

func TestDriver_View(t *testing.T) {
	driver, _ := NewDriver(config.DefaultConfig(), nil, nil)
	var count int
	driver.View(func(sim *simulation.Simulation) {
		count = sim.Len()
	})
	if count != 5 {
		t.Errorf("View saw %d bodies", count)
	}
}

func TestDriver_Run(t *testing.T) {
	bus := event.NewEventBus()
	rec := newRecorder(bus, allTypes()...)
	driver, _ := NewDriver(config.DefaultConfig(), bus, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := 0
	err := driver.Run(ctx, 5*time.Millisecond, func(stats Stats) {
		frames++
		if stats.Tick != uint64(frames) {
			t.Errorf("frame %d saw tick %d", frames, stats.Tick)
		}
		if frames == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if frames != 3 {
		t.Errorf("expected 3 frames, got %d", frames)
	}
	if rec.count(event.SimulationStopped) != 1 {
		t.Error("Run should stop the driver on exit")
	}
}

func TestDriver_RunReturnsStepError(t *testing.T) {
	driver, _ := NewDriver(coincidentConfig(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := driver.Run(ctx, 10*time.Millisecond, nil)
	var degenerate *simulation.DegenerateDistanceError
	if !errors.As(err, &degenerate) {
		t.Errorf("expected DegenerateDistanceError, got %v", err)
	}
}

func TestDriver_RunRejectsBadInterval(t *testing.T) {
	driver, _ := NewDriver(config.DefaultConfig(), nil, nil)
	if err := driver.Run(context.Background(), 0, nil); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestDriver_RunAtConfiguredRate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Presentation.FPS = 100
	driver, _ := NewDriver(cfg, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := 0
	start := time.Now()
	err := driver.Run(ctx, cfg.Presentation.FrameInterval(), func(stats Stats) {
		frames++
		if frames == 5 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	// five ticks at 10ms cannot finish in under 40ms
	if took := time.Since(start); took < 40*time.Millisecond {
		t.Errorf("5 frames at 100 fps took only %v", took)
	}
	if frames != 5 {
		t.Errorf("expected 5 frames, got %d", frames)
	}
}

func TestDriver_RunSteps(t *testing.T) {
	driver, _ := NewDriver(config.DefaultConfig(), nil, nil)
	driver.SetPaused(true)

	if err := driver.RunSteps(context.Background(), 10); err != nil {
		t.Fatalf("RunSteps failed: %v", err)
	}
	if driver.State().Tick != 10 {
		t.Errorf("expected tick 10, got %d", driver.State().Tick)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := driver.RunSteps(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if driver.State().Tick != 10 {
		t.Error("cancelled RunSteps should not step")
	}
}

func TestDriver_ConcurrentReaders(t *testing.T) {
	driver, _ := NewDriver(config.DefaultConfig(), nil, nil)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := driver.Update(); err != nil {
				t.Errorf("Update failed: %v", err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				state := driver.State()
				for _, b := range state.Bodies {
					if len(b.Trajectory) != int(state.Tick) {
						t.Errorf("torn state: tick %d, %s has %d points", state.Tick, b.Name, len(b.Trajectory))
						return
					}
				}
				_ = driver.Stats()
			}
		}()
	}
	wg.Wait()
}
