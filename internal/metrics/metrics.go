package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// PollOK labels polls where readings stayed under thresholds.
	PollOK = "ok"
	// PollUnreachable labels polls where the store could not be read.
	PollUnreachable = "unreachable"
	// PollBreach labels polls that detected an anomaly.
	PollBreach = "breach"

	// OutcomeSuccess labels diagnoses that produced a verdict.
	OutcomeSuccess = "success"
	// OutcomeError labels diagnoses where the whole chain failed.
	OutcomeError = "error"
)

var (
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_observer",
			Name:      "polls_total",
			Help:      "Total number of metric polls, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	diagnosesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_observer",
			Name:      "diagnoses_total",
			Help:      "Total number of diagnosis attempts, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	diagnosisSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentinel_observer",
			Name:      "diagnosis_seconds",
			Help:      "Diagnosis latency in seconds, including backend fallbacks.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	remediationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_observer",
			Name:      "remediations_total",
			Help:      "Total number of remediation attempts, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches the observer collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pollsTotal,
		diagnosesTotal,
		diagnosisSeconds,
		remediationsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePoll records one poll outcome.
func ObservePoll(outcome string) {
	pollsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDiagnosis records a diagnosis duration and outcome label.
func ObserveDiagnosis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	diagnosesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	diagnosisSeconds.Observe(duration.Seconds())
}

// ObserveRemediation records whether an attempted remediation was
// confirmed by the health probe.
func ObserveRemediation(confirmed bool) {
	result := "failed"
	if confirmed {
		result = "confirmed"
	}
	remediationsTotal.WithLabelValues(result).Inc()
}
