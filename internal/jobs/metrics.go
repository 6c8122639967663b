package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for delayed collection steps.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lag      *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the step metrics against registerer. When registerer
// is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single step run.
type Tracker struct {
	metrics *Metrics
	action  string
	start   time.Time
}

// Track starts a tracker for action.
func (m *Metrics) Track(action string) *Tracker {
	return &Tracker{metrics: m, action: action, start: time.Now()}
}

// End records duration and outcome, returning err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.action == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.action).Inc()
	}
	t.metrics.runs.WithLabelValues(t.action, status).Inc()
	t.metrics.duration.WithLabelValues(t.action).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveLag records how late a step ran compared to when it was due.
func (m *Metrics) ObserveLag(action string, lag time.Duration) {
	if m == nil || lag < 0 {
		return
	}
	m.lag.WithLabelValues(action).Observe(lag.Seconds())
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mentordesk_steps_total",
		Help: "Delayed step executions by action and status.",
	}, []string{"action", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mentordesk_steps_failures_total",
		Help: "Delayed step failures by action.",
	}, []string{"action"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentordesk_step_duration_seconds",
		Help:    "Duration of delayed step executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	lag := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentordesk_step_lag_seconds",
		Help:    "Delay between a step's due time and its execution.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"action"})
	registerer.MustRegister(runs, failures, duration, lag)
	return &Metrics{runs: runs, failures: failures, duration: duration, lag: lag}
}
