package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments family computation.
type Metrics struct {
	Candidates     *prometheus.CounterVec
	Classes        *prometheus.GaugeVec
	OracleDuration *prometheus.HistogramVec
	Families       *prometheus.CounterVec
}

// NewMetrics creates the engine metrics and registers them with reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gokn",
				Subsystem: "engine",
				Name:      "candidates_total",
				Help:      "Candidate graphs generated, before (generated) and after (unique) exact-duplicate filtering",
			},
			[]string{"stage"},
		),

		Classes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gokn",
				Subsystem: "engine",
				Name:      "family_classes",
				Help:      "Isomorphism classes in the most recently computed family",
			},
			[]string{"g", "d"},
		),

		OracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gokn",
				Subsystem: "oracle",
				Name:      "duration_seconds",
				Help:      "Canonical form oracle round trip duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"backend"},
		),

		Families: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gokn",
				Subsystem: "engine",
				Name:      "families_total",
				Help:      "Family computations by outcome",
			},
			[]string{"status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Candidates, m.Classes, m.OracleDuration, m.Families)
	}
	return m
}

func (m *Metrics) observe(rep Report) {
	m.Families.WithLabelValues(rep.Status.String()).Inc()
	if rep.Status != Computed && rep.Status != Seeded {
		return
	}
	m.Candidates.WithLabelValues("generated").Add(float64(rep.NumCandidates))
	m.Candidates.WithLabelValues("unique").Add(float64(rep.NumUnique))
	m.Classes.WithLabelValues(strconv.Itoa(rep.Key.G), strconv.Itoa(rep.Key.D)).Set(float64(rep.NumClasses))
}
