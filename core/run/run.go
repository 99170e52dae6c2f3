package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/logger"
	"github.com/pkucera/chpdispatch/core/optimizer"
	"github.com/pkucera/chpdispatch/core/pricing"
	"github.com/pkucera/chpdispatch/core/report"
)

// shortfallWarnMWh is the total unmet heat above which the run logs a warning.
// Shortfall is a priced decision, never an error.
const shortfallWarnMWh = 0.5

// Config is the immutable configuration of one optimization run. Built once
// per request; nothing persists between runs.
type Config struct {
	Assets    asset.Registry
	Pricing   pricing.Config
	Optimizer optimizer.Settings
}

// Validate checks the assembled run configuration pre-solve.
func (c *Config) Validate() error {
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	if err := c.Pricing.ExportPrice.Validate("pricing.export_price"); err != nil {
		return &asset.ConfigurationError{Field: "pricing.export_price", Reason: err.Error()}
	}
	return c.Optimizer.Validate()
}

// Execute runs one optimization end to end: validate, build, solve, extract.
// Each invocation owns its variables exclusively; independent runs may execute
// concurrently.
func Execute(ctx context.Context, h *horizon.Horizon, cfg Config, log logger.Logger) (*report.Result, error) {
	id := uuid.NewString()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pricing.HeatPriceEURMWh > 0 && cfg.Optimizer.ShortfallPenaltyEURMWh < 3*cfg.Pricing.HeatPriceEURMWh {
		log.Warnf("run %s: shortfall penalty %.0f is below 3x the heat price %.0f; coverage may degrade silently",
			id, cfg.Optimizer.ShortfallPenaltyEURMWh, cfg.Pricing.HeatPriceEURMWh)
	}

	prices := pricing.NewResolver(cfg.Pricing)
	model, err := optimizer.Build(h, cfg.Assets, prices, cfg.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	log.Debugw("model assembled", map[string]any{
		"run_id":    id,
		"steps":     model.Steps(),
		"variables": model.NumColumns(),
		"rows":      model.NumRows(),
		"assets":    cfg.Assets.EnabledNames(),
	})

	start := time.Now()
	sol, err := model.Solve(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	if sol.Status == optimizer.StatusFeasible {
		log.Warnf("run %s: time limit reached after %s, reporting best incumbent without optimality proof", id, elapsed)
	}

	res, err := report.Extract(h, cfg.Assets, prices, cfg.Optimizer, model.Variables(), sol)
	if err != nil {
		return nil, err
	}
	res.Summary.RunID = id
	res.Summary.SolveDuration = elapsed

	if res.Summary.TotalShortfallMWh > shortfallWarnMWh {
		log.Warnf("run %s: total shortfall %.1f MWh; raise the penalty or source capacities",
			id, res.Summary.TotalShortfallMWh)
	}
	log.Infof("run %s: %s, objective %.0f EUR, margin %.0f EUR, coverage %.1f%%, solve %s",
		id, sol.Status, sol.Objective, res.Summary.TotalMarginEUR, res.Summary.CoveragePercent, elapsed)
	return res, nil
}
