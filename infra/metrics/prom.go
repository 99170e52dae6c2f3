package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkucera/chpdispatch/core/report"
)

// PromSink records run outcomes in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
	objective prometheus.Gauge
	coverage  prometheus.Gauge
	shortfall prometheus.Gauge
}

// NewPromSink registers run metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_runs_total",
		Help: "Total number of optimization runs by solver status",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_solve_duration_seconds",
		Help:    "Wall-clock duration of the MILP solve",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_last_objective_eur",
		Help: "Solver objective of the most recent run",
	})
	coverage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_last_coverage_percent",
		Help: "Heat demand coverage of the most recent run",
	})
	shortfall := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_last_shortfall_mwh",
		Help: "Total unmet heat of the most recent run",
	})

	s := &PromSink{runs: runs, duration: duration, objective: objective, coverage: coverage, shortfall: shortfall}
	for i, c := range []prometheus.Collector{runs, duration, objective, coverage, shortfall} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			switch existing := are.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				s.runs = existing
			case prometheus.Histogram:
				s.duration = existing
			case prometheus.Gauge:
				switch i {
				case 2:
					s.objective = existing
				case 3:
					s.coverage = existing
				case 4:
					s.shortfall = existing
				}
			}
		}
	}
	return s, nil
}

// RecordRun updates the run metrics.
func (s *PromSink) RecordRun(sum report.Summary) error {
	s.runs.WithLabelValues(sum.SolverStatus.String()).Inc()
	s.duration.Observe(sum.SolveDuration.Seconds())
	s.objective.Set(sum.ObjectiveEUR)
	s.coverage.Set(sum.CoveragePercent)
	s.shortfall.Set(sum.TotalShortfallMWh)
	return nil
}

// StartPromServer exposes the default registry on /metrics.
func StartPromServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
