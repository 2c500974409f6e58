// pkg/simulation/errors.go
package simulation

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-orrery/pkg/physics"
)

var (
	// ErrDuplicateReference is returned by AddBody when SingleReference is
	// set and a reference body is already registered.
	ErrDuplicateReference = errors.New("simulation already has a reference body")

	// ErrSimulationStarted is returned by AddBody once stepping has begun.
	ErrSimulationStarted = errors.New("cannot add bodies after the first step")
)

// InvalidBodyError reports a body rejected at setup.
type InvalidBodyError struct {
	Name   string
	Reason string
}

func (e *InvalidBodyError) Error() string {
	return fmt.Sprintf("invalid body %q: %s", e.Name, e.Reason)
}

// DegenerateDistanceError reports two distinct bodies at the same position
// during a step. The step that produced it has not been applied.
type DegenerateDistanceError struct {
	Body     string
	Other    string
	Position physics.Vector2D
	Step     uint64
}

func (e *DegenerateDistanceError) Error() string {
	return fmt.Sprintf("bodies %q and %q coincide at (%g, %g) in step %d",
		e.Body, e.Other, e.Position.X, e.Position.Y, e.Step)
}

// Unwrap exposes physics.ErrZeroSeparation to errors.Is.
func (e *DegenerateDistanceError) Unwrap() error {
	return physics.ErrZeroSeparation
}
