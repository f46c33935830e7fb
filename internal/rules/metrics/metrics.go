package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rules module.
type Metrics struct {
	Resolved  *prometheus.CounterVec
	Published prometheus.Counter
}

// New creates a new Metrics instance with all rules module metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cetrack_rules_resolved_total",
			Help: "Total rule resolutions by source (rule_pack or credential_defaults)",
		}, []string{"source"}),
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cetrack_rule_packs_published_total",
			Help: "Total rule packs published",
		}),
	}
}

// IncrementResolved records a resolution and which source supplied the rules.
func (m *Metrics) IncrementResolved(source string) {
	m.Resolved.WithLabelValues(source).Inc()
}

// IncrementPublished records a successful rule pack publication.
func (m *Metrics) IncrementPublished() {
	m.Published.Inc()
}
