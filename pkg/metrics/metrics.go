package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TextfileName is the file WriteTextfile produces in the logs directory.
const TextfileName = "coreexp.prom"

// RecordLoad records the ingestion statistics of the input file
func (r *Registry) RecordLoad(edgeRows, headerLines, selfLoops, skippedRows int, duration time.Duration) {
	r.GraphLoadRowsTotal.WithLabelValues("edge").Add(float64(edgeRows))
	r.GraphLoadRowsTotal.WithLabelValues("header").Add(float64(headerLines))
	r.GraphLoadRowsTotal.WithLabelValues("self_loop").Add(float64(selfLoops))
	r.GraphLoadRowsTotal.WithLabelValues("skipped").Add(float64(skippedRows))
	r.GraphLoadDuration.Observe(duration.Seconds())
}

// SetGraphSize records the visible node and edge counts
func (r *Registry) SetGraphSize(nodes, edges int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
}

// RecordWeights records the overlap weight table and the out-weights derived
// from it
func (r *Registry) RecordWeights(weightedEdges int, outWeights map[string]float64) {
	r.GraphWeightedEdges.Set(float64(weightedEdges))
	for _, w := range outWeights {
		r.GraphOutWeight.Observe(w)
	}
}

// RecordPass records one assignment pass
func (r *Registry) RecordPass(mode string, extra bool, assigned int) {
	stage := "primary"
	if extra {
		stage = "extra"
	}
	r.PassesTotal.WithLabelValues(mode, stage).Inc()
	r.NodesAssignedTotal.WithLabelValues(mode).Add(float64(assigned))
}

// RecordPhase records how long a run phase took
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordExpansion records the seed and core counts and the final partition
func (r *Registry) RecordExpansion(seeds, cores int, communitySizes []int, unclassified int) {
	r.SeedsTotal.Set(float64(seeds))
	r.CoresTotal.Set(float64(cores))
	r.CommunitiesTotal.Set(float64(len(communitySizes)))
	for _, size := range communitySizes {
		r.CommunitySize.Observe(float64(size))
	}
	r.NodesUnclassified.Set(float64(unclassified))
}

// RecordOutput records a result file write
func (r *Registry) RecordOutput(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.OutputFilesTotal.WithLabelValues(kind, status).Inc()
}

// RecordSinkError counts a snapshot that could not be written
func (r *Registry) RecordSinkError() {
	r.SinkErrorsTotal.Inc()
}

// MarkRunStart stamps the run start time
func (r *Registry) MarkRunStart(t time.Time) {
	r.RunStartTimestamp.Set(float64(t.Unix()))
}

// UpdateSystemMetrics samples runtime statistics
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteTextfile writes every metric in the Prometheus text format, for
// pickup by a node-exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
