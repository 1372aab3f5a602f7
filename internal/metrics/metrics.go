// Package metrics exposes generation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

const namespace = "aprgen"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Records       *prometheus.CounterVec
	Generations   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	JobsInFlight  prometheus.Gauge
	ArchiveBytes  prometheus.Counter
	Notifications *prometheus.CounterVec
}

// New registers every collector plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Rows generated, by data type.",
		}, []string{"data_type"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests, by source and outcome.",
		}, []string{"source", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a generation including encoding.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"source"}),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Background jobs queued or running.",
		}),
		ArchiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Bytes of ZIP archives written to the blob store.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Run notifications sent to the ingest endpoint, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.Records, m.Generations, m.Duration, m.JobsInFlight, m.ArchiveBytes, m.Notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGeneration records one finished generation.
func (m *Metrics) ObserveGeneration(source string, counts map[core.DataType]int, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Generations.WithLabelValues(source, outcome).Inc()
	m.Duration.WithLabelValues(source).Observe(elapsed.Seconds())
	for dt, n := range counts {
		m.Records.WithLabelValues(string(dt)).Add(float64(n))
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
