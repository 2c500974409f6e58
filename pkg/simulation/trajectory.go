// pkg/simulation/trajectory.go
package simulation

import "github.com/opd-ai/go-orrery/pkg/physics"

// Trajectory is the chronological history of a body's positions.
//
// With a zero limit it grows without bound. With a positive limit it keeps
// only the most recent points in a ring buffer. Index 0 is always the
// oldest retained point.
type Trajectory struct {
	points []physics.Vector2D
	limit  int
	start  int
	total  uint64
}

func newTrajectory(limit int) *Trajectory {
	if limit < 0 {
		limit = 0
	}
	t := &Trajectory{limit: limit}
	if limit > 0 {
		t.points = make([]physics.Vector2D, 0, limit)
	}
	return t
}

// Len returns the number of retained points.
func (t *Trajectory) Len() int {
	return len(t.points)
}

// Limit returns the retention limit, zero meaning unbounded.
func (t *Trajectory) Limit() int {
	return t.limit
}

// Total returns how many points were ever appended, including evicted ones.
func (t *Trajectory) Total() uint64 {
	return t.total
}

// At returns the i-th retained point, oldest first.
func (t *Trajectory) At(i int) physics.Vector2D {
	if i < 0 || i >= len(t.points) {
		panic("trajectory index out of range")
	}
	return t.points[(t.start+i)%len(t.points)]
}

// Last returns the most recent point. ok is false for an empty trajectory.
func (t *Trajectory) Last() (p physics.Vector2D, ok bool) {
	if len(t.points) == 0 {
		return physics.Vector2D{}, false
	}
	return t.At(len(t.points) - 1), true
}

// Each calls fn for every retained point in chronological order and stops
// early if fn returns false.
func (t *Trajectory) Each(fn func(i int, p physics.Vector2D) bool) {
	for i := 0; i < len(t.points); i++ {
		if !fn(i, t.points[(t.start+i)%len(t.points)]) {
			return
		}
	}
}

// Points returns a copy of the retained points, oldest first.
func (t *Trajectory) Points() []physics.Vector2D {
	out := make([]physics.Vector2D, 0, len(t.points))
	t.Each(func(_ int, p physics.Vector2D) bool {
		out = append(out, p)
		return true
	})
	return out
}

func (t *Trajectory) append(p physics.Vector2D) {
	t.total++
	if t.limit == 0 || len(t.points) < t.limit {
		t.points = append(t.points, p)
		return
	}
	// full ring: overwrite the oldest slot
	t.points[t.start] = p
	t.start = (t.start + 1) % t.limit
}
