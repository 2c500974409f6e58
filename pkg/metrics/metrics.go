// Package metrics exports simulation progress to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/go-orrery/pkg/engine"
	"github.com/opd-ai/go-orrery/pkg/physics"
)

// Path is where the handler is usually mounted
const Path = "/metrics"

const namespace = "orrery"

// Collector implements engine.StepObserver and keeps its metrics in a
// private registry so several drivers can run in one process.
type Collector struct {
	registry *prometheus.Registry

	steps            prometheus.Counter
	failures         prometheus.Counter
	stepDuration     prometheus.Histogram
	bodies           prometheus.Gauge
	trajectoryPoints prometheus.Gauge
	nonFinite        prometheus.Gauge
	simulatedDays    prometheus.Gauge
}

var _ engine.StepObserver = (*Collector)(nil)

// NewCollector creates and registers the simulation metrics
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Integration steps completed.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Integration steps that failed and halted the simulation.",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall-clock time spent in one integration step.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		bodies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bodies",
			Help:      "Bodies in the simulation.",
		}),
		trajectoryPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trajectory_points",
			Help:      "Trajectory points retained across all bodies.",
		}),
		nonFinite: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nonfinite_bodies",
			Help:      "Bodies whose position or velocity is NaN or infinite.",
		}),
		simulatedDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulated_days",
			Help:      "Simulated time elapsed, in days.",
		}),
	}

	c.registry.MustRegister(
		c.steps,
		c.failures,
		c.stepDuration,
		c.bodies,
		c.trajectoryPoints,
		c.nonFinite,
		c.simulatedDays,
	)
	return c
}

// StepCompleted implements engine.StepObserver
func (c *Collector) StepCompleted(took time.Duration, stats engine.Stats) {
	c.steps.Inc()
	c.stepDuration.Observe(took.Seconds())
	c.bodies.Set(float64(stats.Bodies))
	c.trajectoryPoints.Set(float64(stats.TrajectoryPoints))
	c.nonFinite.Set(float64(stats.NonFinite))
	c.simulatedDays.Set(stats.Elapsed / physics.Day)
}

// StepFailed implements engine.StepObserver
func (c *Collector) StepFailed(err error) {
	c.failures.Inc()
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
