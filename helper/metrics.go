package helper

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup results reported to ParticipantLookups
const (
	LookupOK       = "ok"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// Metrics holds the prometheus collectors of the catalog.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry           *prometheus.Registry
	ResolutionDuration prometheus.Histogram
	ParticipantLookups *prometheus.CounterVec
	StageFailures      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ResolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bibliograph",
			Name:      "resolution_seconds",
			Help:      "Time spent resolving the relationships of one entity.",
			Buckets:   prometheus.DefBuckets,
		}),
		ParticipantLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliograph",
			Name:      "participant_lookups_total",
			Help:      "Relationship participant lookups by result.",
		}, []string{"result"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliograph",
			Name:      "stage_failures_total",
			Help:      "Request pipeline stage failures by stage.",
		}, []string{"stage"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibliograph",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		m.ResolutionDuration,
		m.ParticipantLookups,
		m.StageFailures,
		m.HTTPRequests,
	)

	return m
}

// ObserveResolution records the duration of one relationship resolution
func (m *Metrics) ObserveResolution(d time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionDuration.Observe(d.Seconds())
}

// CountLookup records one participant lookup with the given result
func (m *Metrics) CountLookup(result string) {
	if m == nil {
		return
	}
	m.ParticipantLookups.WithLabelValues(result).Inc()
}

// CountStageFailure records a failed pipeline stage
func (m *Metrics) CountStageFailure(stage string) {
	if m == nil {
		return
	}
	m.StageFailures.WithLabelValues(stage).Inc()
}

// CountRequest records a served HTTP request
func (m *Metrics) CountRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
