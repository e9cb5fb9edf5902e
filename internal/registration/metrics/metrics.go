package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	DuplicatesRejected   prometheus.Counter
	RegistrationsDeleted prometheus.Counter
	SubmitDuration       prometheus.Histogram
}

// New creates a new Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_registrations_created_total",
			Help: "Total number of registrations admitted",
		}),
		DuplicatesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_duplicate_rolls_rejected_total",
			Help: "Total number of submissions rejected for a duplicate roll number",
		}),
		RegistrationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_registrations_deleted_total",
			Help: "Total number of registrations deleted by admins",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "technoreg_submit_registration_duration_seconds",
			Help:    "Duration of registration submissions (public critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSubmit records the duration of a submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
