package report

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/optimizer"
	"github.com/pkucera/chpdispatch/core/pricing"
)

// boilerFixture is a two-step boiler-only model straddling a month boundary.
// With a heat price of 100, gas at 35 and a 5 EUR grid fee, one MWh of boiler
// heat at 80% efficiency is worth 100 - (35+5)/0.8 = 50 EUR.
func boilerFixture(t *testing.T) (*horizon.Horizon, asset.Registry, pricing.Resolver, optimizer.Settings, *optimizer.Model) {
	t.Helper()

	h := &horizon.Horizon{Steps: []horizon.Step{
		{Index: 0, Timestamp: time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC), ElectricityEURMWh: 80, GasEURMWh: 35, HeatDemandMW: 1},
		{Index: 1, Timestamp: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), ElectricityEURMWh: 80, GasEURMWh: 35, HeatDemandMW: 1},
	}}
	reg := asset.Registry{Boiler: asset.Boiler{Enabled: true, MaxHeatMW: 2, Efficiency: 0.8}}
	prices := pricing.NewResolver(pricing.Config{HeatPriceEURMWh: 100, GasFeeEURMWh: 5})
	settings := optimizer.Settings{CoverageTarget: 1, ShortfallPenaltyEURMWh: 500}

	m, err := optimizer.Build(h, reg, prices, settings)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return h, reg, prices, settings, m
}

func assign(t *testing.T, m *optimizer.Model, vs []optimizer.Var, vals []float64, into []float64) {
	t.Helper()
	for i, v := range vs {
		col, ok := v.Index()
		if !ok {
			t.Fatalf("dead handle at %d", i)
		}
		into[col] = vals[i]
	}
}

func TestExtractReconciles(t *testing.T) {
	h, reg, prices, settings, m := boilerFixture(t)
	vars := m.Variables()

	values := make([]float64, m.NumColumns())
	assign(t, m, vars.BoilerHeat, []float64{1, 1}, values)
	sol := optimizer.NewSolution(optimizer.StatusOptimal, 100, values)

	res, err := Extract(h, reg, prices, settings, vars, sol)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows: %d", len(res.Rows))
	}
	for i, row := range res.Rows {
		if math.Abs(row.MarginEUR-50) > 1e-9 {
			t.Fatalf("row %d margin: got %v want 50", i, row.MarginEUR)
		}
		if math.Abs(row.HeatDeliveredMW-1) > 1e-9 {
			t.Fatalf("row %d delivered: %v", i, row.HeatDeliveredMW)
		}
	}
	if math.Abs(res.Rows[1].CumulativeMarginEUR-100) > 1e-9 {
		t.Fatalf("cumulative margin: %v", res.Rows[1].CumulativeMarginEUR)
	}
	if res.Summary.CoveragePercent != 100 {
		t.Fatalf("coverage: %v", res.Summary.CoveragePercent)
	}
	if len(res.Monthly) != 2 {
		t.Fatalf("monthly buckets: %d", len(res.Monthly))
	}
	if len(res.HourOfDay) != 2 {
		t.Fatalf("hour-of-day buckets: %d", len(res.HourOfDay))
	}
}

func TestExtractReconciliationMismatch(t *testing.T) {
	h, reg, prices, settings, m := boilerFixture(t)
	vars := m.Variables()

	values := make([]float64, m.NumColumns())
	assign(t, m, vars.BoilerHeat, []float64{1, 1}, values)
	// Recomputed margin is 100; report an objective 10% off.
	sol := optimizer.NewSolution(optimizer.StatusOptimal, 110, values)

	_, err := Extract(h, reg, prices, settings, vars, sol)
	var recErr *ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	if recErr.Recomputed != 100 || recErr.Reported != 110 {
		t.Fatalf("error payload: %+v", recErr)
	}
}

func TestExtractRejectsUnusableStatus(t *testing.T) {
	h, reg, prices, settings, m := boilerFixture(t)
	sol := optimizer.NewSolution(optimizer.StatusInfeasible, 0, make([]float64, m.NumColumns()))
	if _, err := Extract(h, reg, prices, settings, m.Variables(), sol); err == nil {
		t.Fatalf("expected error for infeasible status")
	}
}

func TestExtractIdempotent(t *testing.T) {
	h, reg, prices, settings, m := boilerFixture(t)
	vars := m.Variables()

	values := make([]float64, m.NumColumns())
	assign(t, m, vars.BoilerHeat, []float64{0.5, 1}, values)
	assign(t, m, vars.Shortfall, []float64{0.5, 0}, values)
	obj := 50*0.5 - 500*0.5 + 50
	sol := optimizer.NewSolution(optimizer.StatusOptimal, obj, values)

	first, err := Extract(h, reg, prices, settings, vars, sol)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, err := Extract(h, reg, prices, settings, vars, sol)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}
	for i := range first.Rows {
		if first.Rows[i] != second.Rows[i] {
			t.Fatalf("row %d differs between extractions", i)
		}
	}
	if first.Summary.TotalShortfallMWh != 0.5 {
		t.Fatalf("shortfall total: %v", first.Summary.TotalShortfallMWh)
	}
	if first.Summary.CoveragePercent != 75 {
		t.Fatalf("coverage: %v", first.Summary.CoveragePercent)
	}
}

func TestFullShortfallMargin(t *testing.T) {
	// A step with unmet demand must carry the penalty in its margin.
	h, reg, prices, settings, m := boilerFixture(t)
	vars := m.Variables()

	values := make([]float64, m.NumColumns())
	assign(t, m, vars.Shortfall, []float64{1, 1}, values)
	sol := optimizer.NewSolution(optimizer.StatusOptimal, -1000, values)

	res, err := Extract(h, reg, prices, settings, vars, sol)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Rows[0].MarginEUR != -500 {
		t.Fatalf("penalized margin: %v", res.Rows[0].MarginEUR)
	}
	if res.Summary.CoveragePercent != 0 {
		t.Fatalf("coverage with full shortfall: %v", res.Summary.CoveragePercent)
	}
}
