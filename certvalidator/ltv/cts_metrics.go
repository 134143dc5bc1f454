package ltv

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CTSMetrics collects Prometheus telemetry for the control-time sliding
// engine: one run processes a chain certificate by certificate, and each
// certificate visited runs a handful of constraint checks, so both are
// tracked at vector granularity.
type CTSMetrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	certsVisited   prometheus.Histogram
	constraintsRun *prometheus.CounterVec
	controlTimeAge prometheus.Histogram
}

// NewCTSMetrics builds and registers a CTSMetrics collector under the given
// namespace. Pass "" to default to "cts".
func NewCTSMetrics(namespace string) *CTSMetrics {
	if namespace == "" {
		namespace = "cts"
	}

	m := &CTSMetrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of control-time sliding runs by resulting indication",
		},
		[]string{"indication", "sub_indication"},
	)

	m.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall-clock time to run the sliding engine over one chain",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)

	m.certsVisited = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "certificates_visited",
			Help:      "Number of certificates visited by a single run before it returned",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	m.constraintsRun = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "constraint",
			Name:      "evaluations_total",
			Help:      "Total constraint evaluations by message tag and status",
		},
		[]string{"tag", "status"},
	)

	m.controlTimeAge = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "control_time_age_seconds",
			Help:      "Age of the resulting control time relative to validation time",
			Buckets:   prometheus.ExponentialBuckets(3600, 4, 12), // 1h to ~480y
		},
	)

	m.registry.MustRegister(m.runsTotal, m.runDuration, m.certsVisited, m.constraintsRun, m.controlTimeAge)
	return m
}

// Registry returns the Prometheus registry metrics were registered against.
func (m *CTSMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records the outcome of a completed sliding run.
func (m *CTSMetrics) RecordRun(conclusion Conclusion, now time.Time, duration time.Duration, certsVisited int) {
	m.runsTotal.WithLabelValues(conclusion.Indication.String(), conclusion.SubIndication.String()).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.certsVisited.Observe(float64(certsVisited))
	if age := now.Sub(conclusion.ControlTime); age > 0 {
		m.controlTimeAge.Observe(age.Seconds())
	}
}

// RecordConstraint records a single constraint evaluation.
func (m *CTSMetrics) RecordConstraint(tag string, status ConstraintStatus) {
	m.constraintsRun.WithLabelValues(tag, status.String()).Inc()
}

// ctsMetricsSink is the subset of CTSMetrics the engine depends on, so a run
// can be driven without Prometheus wired in at all.
type ctsMetricsSink interface {
	RecordRun(conclusion Conclusion, now time.Time, duration time.Duration, certsVisited int)
	RecordConstraint(tag string, status ConstraintStatus)
}

// noOpCTSMetrics discards everything; used when the caller does not wire a
// *CTSMetrics into the engine.
type noOpCTSMetrics struct{}

func (noOpCTSMetrics) RecordRun(Conclusion, time.Time, time.Duration, int) {}
func (noOpCTSMetrics) RecordConstraint(string, ConstraintStatus)           {}

var (
	_ ctsMetricsSink = (*CTSMetrics)(nil)
	_ ctsMetricsSink = noOpCTSMetrics{}
)
