package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/gridrun/internal/application/scan"
)

// Pair outcomes
const (
	OutcomePassed   = "passed"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// MetricsRegistry holds all Prometheus metrics for gridrun. It implements
// scan.Recorder.
type MetricsRegistry struct {
	registry *prometheus.Registry

	PairsTotal       *prometheus.CounterVec
	PairSkips        *prometheus.CounterVec
	ScreenDuration   prometheus.Histogram
	FetchDuration    *prometheus.HistogramVec
	RunsTotal        *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
	Recommendations  prometheus.Gauge
}

// NewMetricsRegistry creates a registry with the gridrun metrics plus the Go
// runtime and process collectors
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		PairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridrun_pairs_total",
				Help: "Pairs screened by outcome",
			},
			[]string{"outcome"},
		),

		PairSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridrun_pair_skips_total",
				Help: "Pairs skipped during screening by reason",
			},
			[]string{"reason"},
		),

		ScreenDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridrun_screen_duration_seconds",
				Help:    "Duration of the screening stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridrun_source_fetch_duration_seconds",
				Help:    "Duration of data source fetches in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"source", "result"},
		),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridrun_runs_total",
				Help: "Screening runs by status",
			},
			[]string{"status"},
		),

		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridrun_last_run_timestamp_seconds",
				Help: "Unix time of the last successful screening run",
			},
		),

		Recommendations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridrun_recommendations",
				Help: "Recommendations produced by the last successful run",
			},
		),
	}

	m.registry.MustRegister(
		m.PairsTotal,
		m.PairSkips,
		m.ScreenDuration,
		m.FetchDuration,
		m.RunsTotal,
		m.LastRunTimestamp,
		m.Recommendations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveFetch implements scan.Recorder
func (m *MetricsRegistry) ObserveFetch(source string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.FetchDuration.WithLabelValues(source, result).Observe(d.Seconds())
}

// ObserveRun implements scan.Recorder
func (m *MetricsRegistry) ObserveRun(run *scan.Run) {
	m.RunsTotal.WithLabelValues(run.Status()).Inc()
	if run.Failed() {
		return
	}

	report := run.Report
	m.PairsTotal.WithLabelValues(OutcomePassed).Add(float64(report.Passed()))
	m.PairsTotal.WithLabelValues(OutcomeRejected).Add(float64(len(report.Rejected)))
	m.PairsTotal.WithLabelValues(OutcomeSkipped).Add(float64(len(report.Skipped)))
	for reason, n := range report.SkipCounts() {
		m.PairSkips.WithLabelValues(reason).Add(float64(n))
	}

	m.ScreenDuration.Observe(run.ScreenDuration.Seconds())
	m.LastRunTimestamp.Set(float64(run.StartedAt.Unix()))
	m.Recommendations.Set(float64(report.Passed()))
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
