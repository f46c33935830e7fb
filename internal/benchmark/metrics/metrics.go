package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the benchmark module.
type Metrics struct {
	SnapshotsGenerated prometheus.Counter
	SnapshotDuration   prometheus.Histogram
	BenchmarkLookups   prometheus.Counter
	BatchFailures      prometheus.Counter
}

// New creates a new Metrics instance with all benchmark module metrics registered.
func New() *Metrics {
	return &Metrics{
		SnapshotsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cetrack_benchmark_snapshots_generated_total",
			Help: "Total benchmark snapshots materialized",
		}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cetrack_benchmark_snapshot_duration_seconds",
			Help:    "Duration of snapshot generation per partition key",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BenchmarkLookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cetrack_benchmark_lookups_total",
			Help: "Total user benchmark lookups served",
		}),
		BatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cetrack_benchmark_batch_failures_total",
			Help: "Total partition keys that failed during batch snapshot runs",
		}),
	}
}

// ObserveSnapshotGenerated records one materialized snapshot and its duration.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveSnapshotGenerated(start time.Time) {
	m.SnapshotsGenerated.Inc()
	m.SnapshotDuration.Observe(time.Since(start).Seconds())
}

// IncrementBenchmarkLookups records a served user benchmark lookup.
func (m *Metrics) IncrementBenchmarkLookups() {
	m.BenchmarkLookups.Inc()
}

// IncrementBatchFailures records a partition key that failed in a batch run.
func (m *Metrics) IncrementBatchFailures() {
	m.BatchFailures.Inc()
}
