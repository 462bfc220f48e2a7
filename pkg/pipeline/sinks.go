package pipeline

import (
	"errors"

	"github.com/dd0wney/cluso-coreexp/pkg/algorithms"
	"github.com/dd0wney/cluso-coreexp/pkg/metrics"
)

// metricsSink records every pass and fans the report out to the wrapped
// sinks, counting their failures.
type metricsSink struct {
	registry *metrics.Registry
	next     []algorithms.PassSink
}

func newMetricsSink(reg *metrics.Registry, next ...algorithms.PassSink) *metricsSink {
	return &metricsSink{registry: reg, next: next}
}

func (s *metricsSink) ObservePass(r algorithms.PassReport) error {
	s.registry.RecordPass(string(r.Mode), r.Extra, len(r.Assigned))

	var errs []error
	for _, sink := range s.next {
		if err := sink.ObservePass(r); err != nil {
			s.registry.RecordSinkError()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
