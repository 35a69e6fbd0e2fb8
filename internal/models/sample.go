package models

import "math"

// MetricSample is one instant-query result. A nil value means the store
// was unreachable or the query failed; that is distinct from a zero
// reading, which is what an empty result set maps to.
type MetricSample struct {
	Value *float64
}

// Sample wraps a scalar reading.
func Sample(v float64) MetricSample {
	return MetricSample{Value: &v}
}

// NoSample marks the store as unreachable for this poll.
func NoSample() MetricSample {
	return MetricSample{}
}

// Missing reports whether the store could not be read.
func (s MetricSample) Missing() bool {
	return s.Value == nil
}

// Scalar returns the reading with NaN normalized to zero. Prometheus
// yields NaN for quantiles over an empty window; policy treats that as
// an idle target, not an error.
func (s MetricSample) Scalar() float64 {
	if s.Value == nil {
		return 0
	}
	if math.IsNaN(*s.Value) {
		return 0
	}
	return *s.Value
}
