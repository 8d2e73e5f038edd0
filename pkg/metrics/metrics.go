// Package metrics exposes Prometheus counters for polling, presentation and
// the HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/energydash/energydash/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	polls         *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	slotWrites    *prometheus.CounterVec
	sentinelSlots *prometheus.GaugeVec
	chartRenders  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New returns Metrics registered on a fresh registry along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energydash_polls_total",
			Help: "Total polls by job and outcome.",
		}, []string{"job", "outcome"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "energydash_poll_duration_seconds",
			Help:    "Histogram of poll durations by job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		slotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energydash_slot_writes_total",
			Help: "Total slot updates written to the presentation sink by source.",
		}, []string{"source"}),
		sentinelSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "energydash_sentinel_slots",
			Help: "Slots currently showing a sentinel by source and sentinel.",
		}, []string{"source", "sentinel"}),
		chartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energydash_chart_renders_total",
			Help: "Total chart rebuilds by canvas.",
		}, []string{"canvas"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energydash_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "energydash_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.polls,
		m.pollDuration,
		m.slotWrites,
		m.sentinelSlots,
		m.chartRenders,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Poll records one finished poll.
func (m *Metrics) Poll(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(job, outcome).Inc()
	m.pollDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Reading records how many slots a reading wrote and how many of its slots
// show each sentinel.
func (m *Metrics) Reading(r types.Reading, written int) {
	if m == nil {
		return
	}
	source := string(r.Source)
	m.slotWrites.WithLabelValues(source).Add(float64(written))
	var na, errs int
	for _, sv := range r.Slots {
		switch sv.Text {
		case types.SentinelUnavailable:
			na++
		case types.SentinelError:
			errs++
		}
	}
	m.sentinelSlots.WithLabelValues(source, types.SentinelUnavailable).Set(float64(na))
	m.sentinelSlots.WithLabelValues(source, types.SentinelError).Set(float64(errs))
}

// ChartRendered records a chart rebuild.
func (m *Metrics) ChartRendered(canvas string) {
	if m == nil {
		return
	}
	m.chartRenders.WithLabelValues(canvas).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their durations under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
