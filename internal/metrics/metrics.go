package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "venue_matcher"

// Metrics holds the scan metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	VenueRequests   *prometheus.CounterVec
	CallTimeouts    *prometheus.CounterVec
	Candidates      *prometheus.CounterVec
	PairsPersisted  *prometheus.CounterVec
	UniverseSize    *prometheus.GaugeVec
	ModeResolutions *prometheus.CounterVec
	ActiveRuns      prometheus.Gauge
}

// New creates Metrics registered with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan runs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan run duration in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"mode"}),
		VenueRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "requests_total",
			Help:      "Venue requests issued during universe fetches by outcome",
		}, []string{"venue", "outcome"}),
		CallTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "call_timeouts_total",
			Help:      "Venue calls abandoned after the per-call timeout",
		}, []string{"venue"}),
		Candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "candidates_total",
			Help:      "Candidates emitted by confidence tier",
		}, []string{"confidence"}),
		PairsPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "pairs_persisted_total",
			Help:      "High-confidence persistence attempts by result",
		}, []string{"result"}),
		UniverseSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "universe_size",
			Help:      "Instruments in the most recent universe by venue",
		}, []string{"venue"}),
		ModeResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "mode_resolutions_total",
			Help:      "Resolved universe modes, split by whether auto switched",
		}, []string{"mode", "switched"}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "active_runs",
			Help:      "Scan runs currently streaming",
		}),
	}
}

// ObserveRequest counts one venue request. outcome "timeout" also
// increments the timeout counter.
func (m *Metrics) ObserveRequest(venue, outcome string) {
	if m == nil {
		return
	}
	m.VenueRequests.WithLabelValues(venue, outcome).Inc()
	if outcome == "timeout" {
		m.CallTimeouts.WithLabelValues(venue).Inc()
	}
}

// RunStarted marks a run as active.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

// RunFinished records a run's outcome and duration.
func (m *Metrics) RunFinished(outcome, mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(outcome).Inc()
	if mode == "" {
		mode = "unresolved"
	}
	m.RunDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ModeResolved records the mode a run settled on.
func (m *Metrics) ModeResolved(mode string, switched bool) {
	if m == nil {
		return
	}
	label := "false"
	if switched {
		label = "true"
	}
	m.ModeResolutions.WithLabelValues(mode, label).Inc()
}

// CandidateEmitted counts a candidate by tier.
func (m *Metrics) CandidateEmitted(confidence string) {
	if m == nil {
		return
	}
	m.Candidates.WithLabelValues(confidence).Inc()
}

// PairPersisted counts a persistence attempt by result.
func (m *Metrics) PairPersisted(result string) {
	if m == nil {
		return
	}
	m.PairsPersisted.WithLabelValues(result).Inc()
}

// SetUniverseSize records the size of a venue's universe.
func (m *Metrics) SetUniverseSize(venue string, n int) {
	if m == nil {
		return
	}
	m.UniverseSize.WithLabelValues(venue).Set(float64(n))
}

// Handler returns the HTTP handler exposing metrics from g.
// A nil g uses the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
