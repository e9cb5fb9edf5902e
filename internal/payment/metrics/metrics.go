package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the payment module.
type Metrics struct {
	ProofsSubmitted  prometheus.Counter
	ProofsRejectedAt prometheus.Counter
	FeesApproved     prometheus.Counter
	FeesReverted     prometheus.Counter
	UploadDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all payment metrics registered.
func New() *Metrics {
	return &Metrics{
		ProofsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_payment_proofs_submitted_total",
			Help: "Total number of payment proofs accepted for review",
		}),
		ProofsRejectedAt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_payment_uploads_rejected_total",
			Help: "Total number of proof uploads rejected before storage (size or type)",
		}),
		FeesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_payment_fees_approved_total",
			Help: "Total number of fee approvals",
		}),
		FeesReverted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "technoreg_payment_fees_reverted_total",
			Help: "Total number of fee approvals reverted to unpaid",
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "technoreg_payment_upload_duration_seconds",
			Help:    "Duration of proof uploads including blob storage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveUpload records the duration of a proof upload.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveUpload(start time.Time) {
	m.UploadDuration.Observe(time.Since(start).Seconds())
}
