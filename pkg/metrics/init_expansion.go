package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExpansionMetrics() {
	r.SeedsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_seeds_total",
			Help: "Number of local-maximum seed nodes",
		},
	)

	r.CoresTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_cores_total",
			Help: "Number of communities after core construction",
		},
	)

	r.CommunitiesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_communities_total",
			Help: "Number of communities in the final partition",
		},
	)

	r.CommunitySize = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coreexp_community_size",
			Help:    "Member count of each final community",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	r.PassesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreexp_passes_total",
			Help: "Assignment passes run",
		},
		[]string{"mode", "stage"}, // weighted/unweighted, primary/extra
	)

	r.NodesAssignedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreexp_nodes_assigned_total",
			Help: "Nodes attached to a community by assignment passes",
		},
		[]string{"mode"},
	)

	r.NodesUnclassified = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_nodes_unclassified",
			Help: "Visible nodes left outside every community",
		},
	)

	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coreexp_phase_duration_seconds",
			Help:    "Duration of each run phase in seconds",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 30, 120, 600},
		},
		[]string{"phase"}, // load, weighting, seeding, expansion, output
	)
}

func (r *Registry) initOutputMetrics() {
	r.OutputFilesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreexp_output_files_total",
			Help: "Result files written",
		},
		[]string{"kind", "status"},
	)

	r.SinkErrorsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "coreexp_sink_errors_total",
			Help: "Pass snapshots that could not be written",
		},
	)
}
