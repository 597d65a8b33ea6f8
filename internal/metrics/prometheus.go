package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter mirrors outcomes into Prometheus metrics on a private registry.
type Exporter struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	latency       prometheus.Histogram
	activeWorkers prometheus.Gauge
}

// NewExporter creates an exporter whose metric names are prefixed by namespace.
func NewExporter(namespace string) *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests issued by virtual users, by result, status code and error kind.",
		}, []string{"result", "code", "kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_virtual_users",
			Help:      "Virtual users currently running.",
		}),
	}
	e.registry.MustRegister(e.requests, e.latency, e.activeWorkers)
	return e
}

// Observe implements Observer.
func (e *Exporter) Observe(o Outcome) {
	result := "success"
	if !o.Success() {
		result = "error"
	}
	code := ""
	if o.StatusCode > 0 {
		code = strconv.Itoa(o.StatusCode)
	}
	e.requests.WithLabelValues(result, code, string(o.ErrorKind)).Inc()
	e.latency.Observe(o.Latency.Seconds())
}

// WorkerStarted increments the active virtual user gauge.
func (e *Exporter) WorkerStarted(int) { e.activeWorkers.Inc() }

// WorkerStopped decrements the active virtual user gauge.
func (e *Exporter) WorkerStopped(int) { e.activeWorkers.Dec() }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
