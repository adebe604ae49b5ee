// Package metrics holds the Prometheus collectors of an update run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Day outcomes used as the status label.
const (
	StatusComputed = "computed"
	StatusFailed   = "failed"
)

// Metrics holds all Prometheus metrics for the update pipeline.
type Metrics struct {
	DaysTotal   *prometheus.CounterVec // labels: status
	ComputeDur  prometheus.Histogram
	LastRunTime prometheus.Gauge
	LastRunDays prometheus.Gauge

	registry *prometheus.Registry
}

// New registers and returns all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		DaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moodcycle_days_total",
			Help: "Trading days processed, by outcome",
		}, []string{"status"}),
		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moodcycle_compute_seconds",
			Help:    "Indicator computation latency per day",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moodcycle_last_run_timestamp_seconds",
			Help: "Unix time the last update run finished",
		}),
		LastRunDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moodcycle_last_run_days",
			Help: "Days computed by the last update run",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.DaysTotal, m.ComputeDur, m.LastRunTime, m.LastRunDays)
	return m
}

// Registry exposes the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveDay records one day's outcome and compute latency.
func (m *Metrics) ObserveDay(failed bool, d time.Duration) {
	status := StatusComputed
	if failed {
		status = StatusFailed
	}
	m.DaysTotal.WithLabelValues(status).Inc()
	m.ComputeDur.Observe(d.Seconds())
}

// FetchFailed records a day whose snapshot could not be fetched.
func (m *Metrics) FetchFailed() {
	m.DaysTotal.WithLabelValues(StatusFailed).Inc()
}

// FinishRun records the end of a run.
func (m *Metrics) FinishRun(at time.Time, computed int) {
	m.LastRunTime.Set(float64(at.Unix()))
	m.LastRunDays.Set(float64(computed))
}

// WriteTextfile writes the metrics in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
