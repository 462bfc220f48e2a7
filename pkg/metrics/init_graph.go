package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_graph_nodes_total",
			Help: "Number of visible nodes in the input graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_graph_edges_total",
			Help: "Number of undirected edges in the input graph",
		},
	)

	r.GraphLoadRowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreexp_graph_load_rows_total",
			Help: "Input rows by outcome",
		},
		[]string{"outcome"}, // edge, header, self_loop, skipped
	)

	r.GraphWeightedEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_graph_weighted_edges",
			Help: "Number of directed edge entries carrying an overlap weight",
		},
	)

	r.GraphOutWeight = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coreexp_graph_out_weight",
			Help:    "Distribution of node out-weights after overlap weighting",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	r.GraphLoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coreexp_graph_load_duration_seconds",
			Help:    "Time spent reading the input file",
			Buckets: prometheus.DefBuckets,
		},
	)
}
