package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

const namespace = "nfl_backtest"

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	failedRuns  *prometheus.CounterVec
	betsPlaced  *prometheus.CounterVec
	floorHalts  *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	lastROI     *prometheus.GaugeVec
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed backtest runs by strategy and verdict.",
		}, []string{"strategy", "verdict"}),
		failedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Backtest runs aborted by a validation or invariant error.",
		}, []string{"strategy"}),
		betsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_placed_total",
			Help:      "Simulated bets placed by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		floorHalts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "floor_halts_total",
			Help:      "Runs halted by the minimum bankroll floor.",
		}, []string{"strategy"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a backtest run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"strategy"}),
		lastROI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_roi_on_wagered",
			Help:      "ROI on amount wagered of the latest run per strategy.",
		}, []string{"strategy"}),
	}

	m.registry.MustRegister(
		m.runs,
		m.failedRuns,
		m.betsPlaced,
		m.floorHalts,
		m.runDuration,
		m.lastROI,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRun records a completed run
func (m *Metrics) ObserveRun(result *models.BacktestResult, duration time.Duration) {
	if result == nil || result.Report == nil {
		return
	}
	report := result.Report

	m.runs.WithLabelValues(result.Strategy, report.Verdict).Inc()
	m.betsPlaced.WithLabelValues(result.Strategy, "win").Add(float64(report.Wins))
	m.betsPlaced.WithLabelValues(result.Strategy, "loss").Add(float64(report.Losses))
	if report.Halted {
		m.floorHalts.WithLabelValues(result.Strategy).Inc()
	}
	m.runDuration.WithLabelValues(result.Strategy).Observe(duration.Seconds())
	m.lastROI.WithLabelValues(result.Strategy).Set(report.ROIOnWagered)
}

// RunFailed records an aborted run
func (m *Metrics) RunFailed(strategy string) {
	m.failedRuns.WithLabelValues(strategy).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
