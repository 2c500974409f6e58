// pkg/simulation/simulation.go
package simulation

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-orrery/pkg/physics"
)

// Order selects which positions a body's force pass reads.
type Order int

const (
	// OrderSequential processes bodies in insertion order, and each body's
	// force pass sees the positions of bodies already advanced in the same
	// step. This reproduces the classic planet-simulation loop.
	OrderSequential Order = iota
	// OrderSynchronous computes every force from start-of-step positions.
	OrderSynchronous
)

// String returns the order name
func (o Order) String() string {
	switch o {
	case OrderSynchronous:
		return "synchronous"
	default:
		return "sequential"
	}
}

// ParseOrder converts a name into an Order. The empty string selects
// OrderSequential.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return OrderSequential, nil
	case "synchronous":
		return OrderSynchronous, nil
	default:
		return OrderSequential, fmt.Errorf("unknown update order %q", s)
	}
}

// Options controls integration and bookkeeping.
type Options struct {
	// TimeStep is the physical duration of one step in seconds.
	TimeStep float64
	// TrajectoryLimit caps retained trajectory points per body; 0 is unbounded.
	TrajectoryLimit int
	// MinSeparation, when positive, clamps the separation used for force
	// magnitudes instead of failing on coincident bodies. Coincident
	// bodies then exert no force on each other.
	MinSeparation float64
	Order         Order
	// SingleReference rejects a second reference body.
	SingleReference bool
}

// DefaultOptions returns one simulated day per step, unbounded
// trajectories, fail-fast on coincident bodies and sequential ordering.
func DefaultOptions() Options {
	return Options{
		TimeStep: physics.Day,
		Order:    OrderSequential,
	}
}

// Validate checks the options for values Step cannot work with.
func (o Options) Validate() error {
	switch {
	case !(o.TimeStep > 0):
		return fmt.Errorf("time step must be positive, got %g", o.TimeStep)
	case o.TrajectoryLimit < 0:
		return fmt.Errorf("trajectory limit must not be negative, got %d", o.TrajectoryLimit)
	case o.MinSeparation < 0:
		return fmt.Errorf("minimum separation must not be negative, got %g", o.MinSeparation)
	case o.Order != OrderSequential && o.Order != OrderSynchronous:
		return fmt.Errorf("unknown update order %d", o.Order)
	}
	return nil
}

// Simulation owns a set of bodies and advances them under mutual gravity by
// one fixed time step per call to Step. It is not safe for concurrent use;
// see engine.Driver for a guarded wrapper.
type Simulation struct {
	opts   Options
	bodies []*Body

	steps   uint64
	elapsed float64

	// per-step scratch, reused between steps
	start      []physics.Vector2D
	positions  []physics.Vector2D
	velocities []physics.Vector2D
	distances  []float64
	measured   []bool
}

// New creates an empty simulation.
func New(opts Options) (*Simulation, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation options: %w", err)
	}
	return &Simulation{opts: opts}, nil
}

// Options returns the options the simulation was created with
func (s *Simulation) Options() Options {
	return s.opts
}

// AddBody registers a body. Bodies must be added before the first Step;
// insertion order is also the force-accumulation order.
func (s *Simulation) AddBody(b *Body) error {
	if b == nil {
		return &InvalidBodyError{Reason: "body is nil"}
	}
	if s.steps > 0 {
		return fmt.Errorf("add body %q: %w", b.name, ErrSimulationStarted)
	}
	if err := b.validate(); err != nil {
		return err
	}
	if b.owner != nil {
		return &InvalidBodyError{Name: b.name, Reason: "body is already registered"}
	}
	if s.opts.SingleReference && b.IsReference() && len(s.ReferenceBodies()) > 0 {
		return fmt.Errorf("add body %q: %w", b.name, ErrDuplicateReference)
	}

	b.owner = s
	if b.trajectory.Len() == 0 {
		b.trajectory = newTrajectory(s.opts.TrajectoryLimit)
	}
	s.bodies = append(s.bodies, b)
	return nil
}

// Bodies returns the registered bodies in insertion order. The slice is a
// copy; the bodies themselves are shared and must only be read.
func (s *Simulation) Bodies() []*Body {
	out := make([]*Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Len returns the number of registered bodies
func (s *Simulation) Len() int {
	return len(s.bodies)
}

// Body returns the first body with the given name.
func (s *Simulation) Body(name string) (*Body, bool) {
	for _, b := range s.bodies {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// ReferenceBodies returns the bodies carrying RoleReference, in insertion order.
func (s *Simulation) ReferenceBodies() []*Body {
	var refs []*Body
	for _, b := range s.bodies {
		if b.IsReference() {
			refs = append(refs, b)
		}
	}
	return refs
}

// Steps returns the number of completed steps
func (s *Simulation) Steps() uint64 {
	return s.steps
}

// Elapsed returns the simulated time in seconds
func (s *Simulation) Elapsed() float64 {
	return s.elapsed
}

// TotalMomentum returns the vector sum of every body's momentum.
func (s *Simulation) TotalMomentum() physics.Vector2D {
	var p physics.Vector2D
	for _, b := range s.bodies {
		p = p.Add(b.Momentum())
	}
	return p
}

// Snapshot returns detached copies of every body's state in insertion order.
func (s *Simulation) Snapshot() []BodyState {
	states := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		states[i] = b.State()
	}
	return states
}

// Step advances every body by one time step using semi-implicit Euler:
//
//	velocity += force / mass * dt
//	position += velocity * dt
//
// The new state is staged and committed only when every body's force pass
// succeeds, so a DegenerateDistanceError leaves all bodies untouched.
func (s *Simulation) Step() error {
	n := len(s.bodies)
	s.prepareScratch(n)

	dt := s.opts.TimeStep
	for i, body := range s.bodies {
		total, err := s.netForce(i)
		if err != nil {
			return err
		}

		velocity := s.velocities[i]
		velocity.X += total.X / body.mass * dt
		velocity.Y += total.Y / body.mass * dt

		position := s.positions[i]
		position.X += velocity.X * dt
		position.Y += velocity.Y * dt

		s.velocities[i] = velocity
		s.positions[i] = position
	}

	for i, body := range s.bodies {
		body.advance(s.positions[i], s.velocities[i])
		if s.measured[i] {
			body.distanceToReference = s.distances[i]
		}
	}
	s.steps++
	s.elapsed += dt
	return nil
}

// netForce sums the pull of every other body on body i and records the
// distance to the last reference body seen.
func (s *Simulation) netForce(i int) (physics.Vector2D, error) {
	body := s.bodies[i]
	pos := s.positions[i]

	var total physics.Vector2D
	for j, other := range s.bodies {
		if j == i {
			continue
		}

		otherPos := s.positions[j]
		if s.opts.Order == OrderSynchronous {
			otherPos = s.start[j]
		}

		force, distance, err := physics.GravitationalForce(pos, otherPos, body.mass, other.mass, s.opts.MinSeparation)
		if err != nil {
			return physics.Vector2D{}, &DegenerateDistanceError{
				Body:     body.name,
				Other:    other.name,
				Position: pos,
				Step:     s.steps + 1,
			}
		}
		if other.IsReference() {
			s.distances[i] = distance
			s.measured[i] = true
		}
		total = total.Add(force)
	}
	return total, nil
}

func (s *Simulation) prepareScratch(n int) {
	if cap(s.positions) < n {
		s.start = make([]physics.Vector2D, n)
		s.positions = make([]physics.Vector2D, n)
		s.velocities = make([]physics.Vector2D, n)
		s.distances = make([]float64, n)
		s.measured = make([]bool, n)
	}
	s.start = s.start[:n]
	s.positions = s.positions[:n]
	s.velocities = s.velocities[:n]
	s.distances = s.distances[:n]
	s.measured = s.measured[:n]

	for i, b := range s.bodies {
		s.start[i] = b.position
		s.positions[i] = b.position
		s.velocities[i] = b.velocity
		s.distances[i] = 0
		s.measured[i] = false
	}
}
