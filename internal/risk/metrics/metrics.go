package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the risk module.
type Metrics struct {
	MembersScored    prometheus.Counter
	FirmScanDuration prometheus.Histogram
}

// New creates a new Metrics instance with all risk module metrics registered.
func New() *Metrics {
	return &Metrics{
		MembersScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cetrack_risk_members_scored_total",
			Help: "Total members scored across firm risk scans",
		}),
		FirmScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cetrack_risk_firm_scan_duration_seconds",
			Help:    "Duration of whole-firm risk scans",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveFirmScored records a completed firm scan and how many members it scored.
// Call with time.Now() captured at the start of the scan.
func (m *Metrics) ObserveFirmScored(start time.Time, members int) {
	m.MembersScored.Add(float64(members))
	m.FirmScanDuration.Observe(time.Since(start).Seconds())
}
