package render

import (
	"github.com/opd-ai/go-orrery/pkg/physics"
	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// SampleBodies builds frame states straight from live bodies, keeping at
// most maxTrail trajectory points per body (evenly strided, always ending
// with the newest point). maxTrail <= 0 keeps every point. Callers must hold
// whatever lock guards the bodies.
func SampleBodies(bodies []*simulation.Body, maxTrail int) []simulation.BodyState {
	states := make([]simulation.BodyState, len(bodies))
	for i, b := range bodies {
		states[i] = simulation.BodyState{
			Name:                b.Name(),
			Role:                b.Role(),
			Mass:                b.Mass(),
			Position:            b.Position(),
			Velocity:            b.Velocity(),
			DistanceToReference: b.DistanceToReference(),
			Trajectory:          sampleTrajectory(b.Trajectory(), maxTrail),
		}
	}
	return states
}

func sampleTrajectory(t *simulation.Trajectory, maxTrail int) []physics.Vector2D {
	n := t.Len()
	if maxTrail <= 0 || n <= maxTrail {
		return t.Points()
	}
	stride := (n + maxTrail - 1) / maxTrail
	out := make([]physics.Vector2D, 0, maxTrail)
	for i := (n - 1) % stride; i < n; i += stride {
		out = append(out, t.At(i))
	}
	return out
}

// SampleFrame samples every body of sim and fills the tick and elapsed time
// of the status. Pause and error state belong to the caller.
func SampleFrame(sim *simulation.Simulation, maxTrail int) ([]simulation.BodyState, Status) {
	status := Status{
		Tick:    sim.Steps(),
		Elapsed: sim.Elapsed(),
	}
	return SampleBodies(sim.Bodies(), maxTrail), status
}
