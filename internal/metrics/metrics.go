// Package metrics exports match-and-claim pipeline metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of pipeline observations the services emit
type Recorder interface {
	ReportSubmitted(status string)
	CandidatesFound(targetStatus string, count int)
	ProviderCall(provider, status string, elapsed time.Duration)
	ClaimOutcome(outcome string)
	NotificationsDispatched(kind string, count int)
}

// Exporter records pipeline metrics into a Prometheus registry
type Exporter struct {
	registry *prometheus.Registry

	reportsSubmitted *prometheus.CounterVec
	matchCandidates  *prometheus.HistogramVec
	providerCalls    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	claimOutcomes    *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

// NewExporter creates an exporter backed by its own registry
func NewExporter() *Exporter {
	e := &Exporter{registry: prometheus.NewRegistry()}

	e.reportsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Subsystem: "intake",
			Name:      "reports_submitted_total",
			Help:      "Total number of item reports persisted",
		},
		[]string{"status"},
	)

	e.matchCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reunite",
			Subsystem: "matcher",
			Name:      "candidates",
			Help:      "Number of candidates returned per search",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"target_status"},
	)

	e.providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Subsystem: "claims",
			Name:      "provider_calls_total",
			Help:      "Reasoning provider calls by outcome",
		},
		[]string{"provider", "status"},
	)

	e.providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reunite",
			Subsystem: "claims",
			Name:      "provider_latency_seconds",
			Help:      "Reasoning provider latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"provider"},
	)

	e.claimOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Subsystem: "claims",
			Name:      "outcomes_total",
			Help:      "Claim verifications by outcome",
		},
		[]string{"outcome"},
	)

	e.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reunite",
			Subsystem: "notifications",
			Name:      "dispatched_total",
			Help:      "Notifications written by kind",
		},
		[]string{"kind"},
	)

	e.registry.MustRegister(
		e.reportsSubmitted,
		e.matchCandidates,
		e.providerCalls,
		e.providerLatency,
		e.claimOutcomes,
		e.notifications,
	)
	return e
}

func (e *Exporter) ReportSubmitted(status string) {
	e.reportsSubmitted.WithLabelValues(status).Inc()
}

func (e *Exporter) CandidatesFound(targetStatus string, count int) {
	e.matchCandidates.WithLabelValues(targetStatus).Observe(float64(count))
}

func (e *Exporter) ProviderCall(provider, status string, elapsed time.Duration) {
	e.providerCalls.WithLabelValues(provider, status).Inc()
	e.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (e *Exporter) ClaimOutcome(outcome string) {
	e.claimOutcomes.WithLabelValues(outcome).Inc()
}

func (e *Exporter) NotificationsDispatched(kind string, count int) {
	e.notifications.WithLabelValues(kind).Add(float64(count))
}

// Handler serves the registry in the Prometheus text format
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Nop discards every observation
type Nop struct{}

func (Nop) ReportSubmitted(string)                     {}
func (Nop) CandidatesFound(string, int)                {}
func (Nop) ProviderCall(string, string, time.Duration) {}
func (Nop) ClaimOutcome(string)                        {}
func (Nop) NotificationsDispatched(string, int)        {}
