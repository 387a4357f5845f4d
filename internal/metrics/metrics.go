// Package metrics holds the Prometheus collectors of the pattern engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patterns"

// Metrics groups the collectors registered by New.
type Metrics struct {
	deployments        *prometheus.CounterVec
	deploymentDuration prometheus.Histogram
	componentsPlaced   prometheus.Counter
	conflicts          *prometheus.CounterVec
	generations        *prometheus.CounterVec
	registryPatterns   prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: result (success, failure)
		deployments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployments_total",
			Help:      "Total pattern deployments by result",
		}, []string{"result"}),
		deploymentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deployment_duration_seconds",
			Help:      "Time spent deploying one pattern into a workspace",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		componentsPlaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_placed_total",
			Help:      "Total workspace components placed by deployments",
		}),
		// Labels: type (naming, position, connection)
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Total deployment conflicts by type",
		}, []string{"type"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_generations_total",
			Help:      "Total template expansions by result",
		}, []string{"result"}),
		registryPatterns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_patterns",
			Help:      "Number of patterns held by the pattern registry",
		}),
	}
}

// ObserveDeployment records one finished deployment.
func (m *Metrics) ObserveDeployment(success bool, placed int, took time.Duration) {
	if m == nil {
		return
	}
	m.deployments.WithLabelValues(resultLabel(success)).Inc()
	m.deploymentDuration.Observe(took.Seconds())
	if success {
		m.componentsPlaced.Add(float64(placed))
	}
}

// IncConflict counts one conflict of the given type.
func (m *Metrics) IncConflict(conflictType string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(conflictType).Inc()
}

// IncGeneration counts one template expansion.
func (m *Metrics) IncGeneration(success bool) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(resultLabel(success)).Inc()
}

// SetRegistryPatterns sets the registry size gauge.
func (m *Metrics) SetRegistryPatterns(n int) {
	if m == nil {
		return
	}
	m.registryPatterns.Set(float64(n))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
