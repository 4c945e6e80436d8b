// Package metrics exposes registration telemetry to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements registration.Recorder.
type Metrics struct {
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	departments *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registration",
			Name:      "submissions_total",
			Help:      "Form submissions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "registration",
			Name:      "submission_duration_seconds",
			Help:      "Time from submit to resolution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		departments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "registration",
			Name:      "department_students",
			Help:      "Students per department as of the last counts refresh.",
		}, []string{"department"}),
	}

	reg.MustRegister(m.submissions, m.duration, m.departments)
	return m
}

func (m *Metrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	m.submissions.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) SetDepartmentCount(department string, count int) {
	m.departments.WithLabelValues(department).Set(float64(count))
}
