package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the metrics of one community detection run
type Registry struct {
	// Graph Metrics
	GraphNodesTotal    prometheus.Gauge
	GraphEdgesTotal    prometheus.Gauge
	GraphLoadRowsTotal *prometheus.CounterVec
	GraphWeightedEdges prometheus.Gauge
	GraphOutWeight     prometheus.Histogram
	GraphLoadDuration  prometheus.Histogram

	// Expansion Metrics
	SeedsTotal         prometheus.Gauge
	CoresTotal         prometheus.Gauge
	CommunitiesTotal   prometheus.Gauge
	CommunitySize      prometheus.Histogram
	PassesTotal        *prometheus.CounterVec
	NodesAssignedTotal *prometheus.CounterVec
	NodesUnclassified  prometheus.Gauge
	PhaseDuration      *prometheus.HistogramVec

	// Output Metrics
	OutputFilesTotal *prometheus.CounterVec
	SinkErrorsTotal  prometheus.Counter

	// System Metrics
	RunStartTimestamp prometheus.Gauge
	GoRoutines        prometheus.Gauge
	MemoryAllocBytes  prometheus.Gauge
	MemorySysBytes    prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initExpansionMetrics()
	r.initOutputMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
