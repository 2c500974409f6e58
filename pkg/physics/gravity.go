// pkg/physics/gravity.go
package physics

import (
	"errors"
	"math"
)

const (
	// G is the gravitational constant in N·m²/kg².
	G = 6.67428e-11

	// AU is one astronomical unit in meters.
	AU = 149.6e6 * 1000

	// Day is one simulated day in seconds.
	Day = 3600 * 24
)

// ErrZeroSeparation is returned when two bodies occupy the same point and
// no minimum separation is configured.
var ErrZeroSeparation = errors.New("zero separation between bodies")

// GravitationalForce returns the force that a body of mass otherMass at
// other exerts on a body of mass mass at pos, together with the true
// separation between them.
//
// The force direction comes from atan2 of the separation vector. When
// minSeparation is positive, separations below it are clamped to it for
// the magnitude only; the returned distance is always the true one.
// Coincident bodies have no direction, so under clamping they exert no
// force on each other.
func GravitationalForce(pos, other Vector2D, mass, otherMass, minSeparation float64) (Vector2D, float64, error) {
	delta := other.Sub(pos)
	distance := delta.Length()

	if distance == 0 {
		if minSeparation > 0 {
			return Vector2D{}, 0, nil
		}
		return Vector2D{}, 0, ErrZeroSeparation
	}

	r := distance
	if r < minSeparation {
		r = minSeparation
	}

	magnitude := G * mass * otherMass / (r * r)
	return FromAngle(delta.Angle(), magnitude), distance, nil
}

// CircularOrbitSpeed returns the speed of a circular orbit at distance
// around a central mass: sqrt(G*M/d).
func CircularOrbitSpeed(centralMass, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return math.Sqrt(G * centralMass / distance)
}
