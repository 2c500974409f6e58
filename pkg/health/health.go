// Package health provides liveness and readiness endpoints for headless
// simulation runs.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/physics"
)

// Check results
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckTimeout is the default deadline given to each check.
const CheckTimeout = 5 * time.Second

// Liveness and readiness paths
const (
	LivenessPath  = "/health"
	ReadinessPath = "/ready"
)

// Source exposes the driver counters the checks read. *engine.Driver
// satisfies it.
type Source interface {
	Stats() engine.Stats
}

// Check is one named readiness condition.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// Result is the outcome of one check.
type Result struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report is the readiness response body. Tick and Days describe how far
// the simulation had advanced when the checks ran.
type Report struct {
	Status string   `json:"status"`
	Tick   uint64   `json:"tick"`
	Days   float64  `json:"days"`
	Checks []Result `json:"checks"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Result returns the named check result.
func (r Report) Result(name string) (Result, bool) {
	for _, res := range r.Checks {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Checker runs checks in registration order against one simulation.
type Checker struct {
	source Source

	// Timeout bounds each check; zero means CheckTimeout.
	Timeout time.Duration

	mu     sync.RWMutex
	checks []Check
}

// NewChecker creates a checker reporting progress from source. A nil
// source leaves Tick and Days at zero.
func NewChecker(source Source) *Checker {
	return &Checker{source: source}
}

// ForSimulation returns a checker with the simulation, state and memory
// checks registered for source.
func ForSimulation(source Source, memoryLimitMB int64) *Checker {
	c := NewChecker(source)
	c.Add(NewSimulationCheck(source))
	c.Add(NewStateCheck(source))
	c.Add(NewMemoryCheck(source, memoryLimitMB))
	return c
}

// Add registers check, replacing a check of the same name in place.
func (c *Checker) Add(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.checks {
		if existing.Name() == check.Name() {
			c.checks[i] = check
			return
		}
	}
	c.checks = append(c.checks, check)
}

// Remove unregisters the named check and reports whether it was present.
func (c *Checker) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.checks {
		if existing.Name() == name {
			c.checks = append(c.checks[:i], c.checks[i+1:]...)
			return true
		}
	}
	return false
}

// Run executes every check, each under its own deadline.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := append([]Check(nil), c.checks...)
	c.mu.RUnlock()

	report := Report{
		Status: StatusHealthy,
		Checks: make([]Result, 0, len(checks)),
	}
	if c.source != nil {
		stats := c.source.Stats()
		report.Tick = stats.Tick
		report.Days = stats.Elapsed / physics.Day
	}

	for _, check := range checks {
		result := Result{Name: check.Name(), Status: StatusHealthy}
		if err := c.runOne(ctx, check); err != nil {
			report.Status = StatusUnhealthy
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}
		report.Checks = append(report.Checks, result)
	}
	return report
}

func (c *Checker) runOne(ctx context.Context, check Check) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = CheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return check.Check(ctx)
}

// LivenessHandler answers 200 while the process can serve requests. It
// runs no checks.
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "alive"}
	if c.source != nil {
		body["tick"] = c.source.Stats().Tick
	}
	writeJSON(w, http.StatusOK, body)
}

// ReadinessHandler answers 200 with the report when every check passes and
// 503 otherwise.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	report := c.Run(r.Context())

	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// Register mounts the liveness and readiness handlers on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc(LivenessPath, c.LivenessHandler)
	mux.HandleFunc(ReadinessPath, c.ReadinessHandler)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// SimulationCheck fails once the driver is stopped or a step has failed.
type SimulationCheck struct {
	source Source
}

// NewSimulationCheck creates the "simulation" check.
func NewSimulationCheck(source Source) *SimulationCheck {
	return &SimulationCheck{source: source}
}

// Name implements Check.
func (s *SimulationCheck) Name() string { return "simulation" }

// Check implements Check. A halt is reported in preference to a stop.
func (s *SimulationCheck) Check(ctx context.Context) error {
	stats := s.source.Stats()
	if stats.Err != nil {
		return fmt.Errorf("simulation halted: %w", stats.Err)
	}
	if stats.Stopped {
		return fmt.Errorf("simulation is not running")
	}
	return nil
}

// StateCheck fails when any body has a non-finite position or velocity.
type StateCheck struct {
	source Source
}

// NewStateCheck creates the "state" check.
func NewStateCheck(source Source) *StateCheck {
	return &StateCheck{source: source}
}

// Name implements Check.
func (s *StateCheck) Name() string { return "state" }

// Check implements Check.
func (s *StateCheck) Check(ctx context.Context) error {
	if n := s.source.Stats().NonFinite; n > 0 {
		return fmt.Errorf("%d bodies have a non-finite position or velocity", n)
	}
	return nil
}

// MemoryCheck fails when the heap grows past a limit. Retained trajectory
// points are the only state that grows during a run, so the failure
// message includes their count.
type MemoryCheck struct {
	source  Source
	limitMB int64
	usage   func() int64
}

// NewMemoryCheck creates the "memory" check over the current heap size.
func NewMemoryCheck(source Source, limitMB int64) *MemoryCheck {
	return &MemoryCheck{
		source:  source,
		limitMB: limitMB,
		usage:   CurrentMemoryMB,
	}
}

// Name implements Check.
func (m *MemoryCheck) Name() string { return "memory" }

// Check implements Check.
func (m *MemoryCheck) Check(ctx context.Context) error {
	used := m.usage()
	if used <= m.limitMB {
		return nil
	}
	points := 0
	if m.source != nil {
		points = m.source.Stats().TrajectoryPoints
	}
	return fmt.Errorf("heap %dMB exceeds limit %dMB with %d trajectory points retained", used, m.limitMB, points)
}

// CurrentMemoryMB returns the heap currently allocated, in megabytes.
func CurrentMemoryMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
