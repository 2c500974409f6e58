// pkg/simulation/body.go
package simulation

import (
	"math"

	"github.com/opd-ai/go-orrery/pkg/physics"
)

// Role identifies how a body takes part in distance bookkeeping.
type Role int

const (
	// RoleBody is an ordinary body.
	RoleBody Role = iota
	// RoleReference marks a body other bodies measure their distance to
	// (the "sun").
	RoleReference
)

// String returns the role name
func (r Role) String() string {
	switch r {
	case RoleReference:
		return "reference"
	default:
		return "body"
	}
}

// Body is a point mass with fixed identity and mutable kinematic state.
// Only the owning Simulation changes its state; everything else reads it
// through the accessors.
type Body struct {
	name string
	role Role
	mass float64

	position            physics.Vector2D
	velocity            physics.Vector2D
	distanceToReference float64
	trajectory          *Trajectory

	owner *Simulation
}

// NewBody creates a body at position moving with velocity.
func NewBody(name string, role Role, mass float64, position, velocity physics.Vector2D) *Body {
	return &Body{
		name:       name,
		role:       role,
		mass:       mass,
		position:   position,
		velocity:   velocity,
		trajectory: newTrajectory(0),
	}
}

// Name returns the display label
func (b *Body) Name() string { return b.name }

// Role returns the body's role
func (b *Body) Role() Role { return b.role }

// IsReference reports whether other bodies measure their distance to this one.
func (b *Body) IsReference() bool { return b.role == RoleReference }

// Mass returns the mass in kilograms
func (b *Body) Mass() float64 { return b.mass }

// Position returns the current position in meters
func (b *Body) Position() physics.Vector2D { return b.position }

// Velocity returns the current velocity in m/s
func (b *Body) Velocity() physics.Vector2D { return b.velocity }

// DistanceToReference returns the separation, in meters, to the last
// reference body evaluated during the most recent step. It is zero until a
// step has measured one.
func (b *Body) DistanceToReference() float64 { return b.distanceToReference }

// Trajectory returns the body's position history. The returned value must
// not be retained across steps by readers on other goroutines.
func (b *Body) Trajectory() *Trajectory { return b.trajectory }

// Momentum returns mass times velocity
func (b *Body) Momentum() physics.Vector2D {
	return b.velocity.Scale(b.mass)
}

// validate checks the invariants AddBody enforces.
func (b *Body) validate() error {
	switch {
	case math.IsNaN(b.mass) || math.IsInf(b.mass, 0):
		return &InvalidBodyError{Name: b.name, Reason: "mass must be finite"}
	case b.mass <= 0:
		return &InvalidBodyError{Name: b.name, Reason: "mass must be positive"}
	case !b.position.IsFinite():
		return &InvalidBodyError{Name: b.name, Reason: "position must be finite"}
	case !b.velocity.IsFinite():
		return &InvalidBodyError{Name: b.name, Reason: "velocity must be finite"}
	}
	return nil
}

// advance replaces the kinematic state and records the new position.
func (b *Body) advance(position, velocity physics.Vector2D) {
	b.position = position
	b.velocity = velocity
	b.trajectory.append(position)
}

// BodyState is a detached copy of a body's state, safe to hand to another
// goroutine.
type BodyState struct {
	Name                string             `json:"name"`
	Role                Role               `json:"role"`
	Mass                float64            `json:"mass"`
	Position            physics.Vector2D   `json:"position"`
	Velocity            physics.Vector2D   `json:"velocity"`
	DistanceToReference float64            `json:"distanceToReference"`
	Trajectory          []physics.Vector2D `json:"trajectory,omitempty"`
}

// IsReference reports whether the state belongs to a reference body.
func (s BodyState) IsReference() bool { return s.Role == RoleReference }

// State copies the body's current state.
func (b *Body) State() BodyState {
	return BodyState{
		Name:                b.name,
		Role:                b.role,
		Mass:                b.mass,
		Position:            b.position,
		Velocity:            b.velocity,
		DistanceToReference: b.distanceToReference,
		Trajectory:          b.trajectory.Points(),
	}
}
