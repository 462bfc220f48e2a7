package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.RunStartTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_run_start_timestamp_seconds",
			Help: "Unix time the run started",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	r.MemorySysBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "coreexp_memory_sys_bytes",
			Help: "Total bytes of memory obtained from the OS",
		},
	)
}
