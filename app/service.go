package app

import (
	"context"
	"fmt"

	"github.com/pkucera/chpdispatch/config"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/report"
	"github.com/pkucera/chpdispatch/core/run"
	"github.com/pkucera/chpdispatch/infra/logger"
	"github.com/pkucera/chpdispatch/infra/metrics"
	"github.com/pkucera/chpdispatch/infra/series"
)

// Service wires configuration, logging and metric sinks around the
// optimization core.
type Service struct {
	cfg  *config.Config
	log  logger.Logger
	sink metrics.RunSink

	influx *metrics.InfluxSink
}

// New builds a Service from a loaded configuration.
func New(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg:  cfg,
		log:  logger.New("app"),
		sink: metrics.NopSink{},
	}

	var sinks []metrics.RunSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
		go func() {
			if err := metrics.StartPromServer(cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			s.influx = is
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 1 {
		s.sink = sinks[0]
	} else if len(sinks) > 1 {
		s.sink = metrics.NewMultiSink(sinks...)
	}
	return s, nil
}

// Run executes one optimization request: load series, align, optimize,
// record and return the result.
func (s *Service) Run(ctx context.Context) (*report.Result, error) {
	market, err := series.LoadMarketCSV(s.cfg.Series.MarketCSV)
	if err != nil {
		return nil, err
	}
	site, err := series.LoadSiteCSV(s.cfg.Series.SiteCSV)
	if err != nil {
		return nil, err
	}
	market = horizon.RebaseMarket(market, s.cfg.Series.TargetElectricityEURMWh, s.cfg.Series.TargetGasEURMWh)

	h, err := horizon.Align(market, site)
	if err != nil {
		return nil, err
	}
	s.log.Infof("horizon assembled: %d hours (%s to %s)",
		h.Len(), h.Steps[0].Timestamp.Format("2006-01-02"), h.Steps[h.Len()-1].Timestamp.Format("2006-01-02"))

	res, err := run.Execute(ctx, h, run.Config{
		Assets:    s.cfg.Assets,
		Pricing:   s.cfg.Pricing,
		Optimizer: s.cfg.Optimizer,
	}, s.log)
	if err != nil {
		return nil, err
	}

	if err := s.sink.RecordRun(res.Summary); err != nil {
		s.log.Errorf("record run: %v", err)
	}
	return res, nil
}

// Close releases sink resources.
func (s *Service) Close() error {
	if s.influx != nil {
		s.influx.Close()
	}
	return nil
}
