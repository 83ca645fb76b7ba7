package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	requests    *prometheus.CounterVec
	appended    prometheus.Counter
	rejected    prometheus.Counter
	generations *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kaoyan",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kaoyan",
			Name:      "blessings_appended_total",
			Help:      "Blessings persisted to the store.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kaoyan",
			Name:      "blessings_rejected_total",
			Help:      "Blessings rejected by validation.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kaoyan",
			Name:      "generations_total",
			Help:      "Generated blessings by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.appended, m.rejected, m.generations)
	}
	return m
}

// ObserveRequest counts one handled HTTP request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// BlessingAppended counts a persisted blessing.
func (m *Metrics) BlessingAppended() {
	if m == nil {
		return
	}
	m.appended.Inc()
}

// BlessingRejected counts a blessing that failed validation.
func (m *Metrics) BlessingRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}

// Generation counts a generated blessing.
func (m *Metrics) Generation(fallback bool) {
	if m == nil {
		return
	}
	outcome := "upstream"
	if fallback {
		outcome = "fallback"
	}
	m.generations.WithLabelValues(outcome).Inc()
}
