package optimizer

import (
	"math"
	"testing"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/pricing"
)

func flatHorizon(t int, eePrice, gasPrice, demand float64) *horizon.Horizon {
	steps := make([]horizon.Step, t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range steps {
		steps[i] = horizon.Step{
			Index:             i,
			Timestamp:         base.Add(time.Duration(i) * time.Hour),
			ElectricityEURMWh: eePrice,
			GasEURMWh:         gasPrice,
			HeatDemandMW:      demand,
		}
	}
	return &horizon.Horizon{Steps: steps}
}

func TestBuildEmptyHorizon(t *testing.T) {
	_, err := Build(&horizon.Horizon{}, asset.Registry{}, pricing.NewResolver(pricing.Config{}), Settings{})
	if err == nil {
		t.Fatalf("expected error for empty horizon")
	}
}

func TestBuildCHPOnlyStructure(t *testing.T) {
	reg := asset.Registry{CHP: asset.CHP{
		Enabled:              true,
		ThermalCapacityMW:    1.0,
		ThermalEfficiency:    0.5,
		ElectricalEfficiency: 0.4,
		MinLoadFraction:      0.55,
		MinRunTimeHours:      2,
	}}
	h := flatHorizon(3, 100, 30, 2)
	m, err := Build(h, reg, pricing.NewResolver(pricing.Config{HeatPriceEURMWh: 100}), Settings{CoverageTarget: 1, ShortfallPenaltyEURMWh: 500})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// 3 steps x (heat, on, start, import, export, shortfall)
	if got := m.NumColumns(); got != 18 {
		t.Fatalf("columns: got %d want 18", got)
	}
	// commitment: 6 load-link + 1 first-start + 6 start-detect + 2 min-run,
	// balances: 4 per step
	if got := m.NumRows(); got != 27 {
		t.Fatalf("rows: got %d want 27", got)
	}

	vars := m.Variables()
	for i := 0; i < 3; i++ {
		col, ok := vars.CHPOn[i].Index()
		if !ok {
			t.Fatalf("on[%d] must be live", i)
		}
		if m.mip.VarTypes[col] != highs.Integer {
			t.Fatalf("on[%d] must be integer", i)
		}
		if m.mip.ColUpper[col] != 1 {
			t.Fatalf("on[%d] upper bound: %v", i, m.mip.ColUpper[col])
		}
		heatCol, _ := vars.CHPHeat[i].Index()
		if m.mip.ColUpper[heatCol] != 1.0 {
			t.Fatalf("heat[%d] must be bounded by thermal capacity", i)
		}
	}
	if !m.mip.Maximize {
		t.Fatalf("objective must maximize")
	}
}

func TestBuildDisabledAssetsHaveDeadHandles(t *testing.T) {
	reg := asset.Registry{Boiler: asset.Boiler{Enabled: true, MaxHeatMW: 2, Efficiency: 0.9}}
	h := flatHorizon(2, 100, 30, 1)
	m, err := Build(h, reg, pricing.NewResolver(pricing.Config{}), Settings{CoverageTarget: 1, ShortfallPenaltyEURMWh: 500})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	vars := m.Variables()

	for i := 0; i < 2; i++ {
		if vars.CHPHeat[i].Live() || vars.BatteryCharge[i].Live() || vars.TESCharge[i].Live() {
			t.Fatalf("disabled asset handles must be dead")
		}
		if !vars.BoilerHeat[i].Live() || !vars.Shortfall[i].Live() {
			t.Fatalf("enabled series must be live")
		}
	}
	if len(vars.TESSOC) != 3 || len(vars.BatterySOC) != 3 {
		t.Fatalf("soc series must span boundary points even when dead")
	}

	sol := NewSolution(StatusOptimal, 0, make([]float64, m.NumColumns()))
	if sol.Value(vars.CHPHeat[0]) != 0 {
		t.Fatalf("dead handle must resolve to 0")
	}
}

func TestBuildStorageRows(t *testing.T) {
	reg := asset.Registry{
		ThermalStorage: asset.ThermalStorage{Enabled: true, CapacityMWh: 10, LossPerHour: 0.005, InitialSOCFraction: 0.5},
		Battery:        asset.Battery{Enabled: true, CapacityMWh: 1, MaxPowerMW: 0.5, Efficiency: 0.9, InitialSOCFraction: 0.2},
	}
	h := flatHorizon(2, 100, 30, 1)
	m, err := Build(h, reg, pricing.NewResolver(pricing.Config{}), Settings{ShortfallPenaltyEURMWh: 500})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	vars := m.Variables()
	socCol, _ := vars.TESSOC[0].Index()
	if m.mip.ColUpper[socCol] != 10 {
		t.Fatalf("tes soc upper: %v", m.mip.ColUpper[socCol])
	}
	chaCol, _ := vars.BatteryCharge[0].Index()
	if m.mip.ColUpper[chaCol] != 0.5 {
		t.Fatalf("battery charge must be power limited: %v", m.mip.ColUpper[chaCol])
	}

	// The first two rows fix the initial SOCs exactly.
	if m.mip.RowLower[0] != 5 || m.mip.RowUpper[0] != 5 {
		t.Fatalf("tes initial soc row: [%v,%v]", m.mip.RowLower[0], m.mip.RowUpper[0])
	}
	foundBattInit := false
	for r := range m.mip.RowLower {
		if m.mip.RowLower[r] == 0.2 && m.mip.RowUpper[r] == 0.2 {
			foundBattInit = true
		}
	}
	if !foundBattInit {
		t.Fatalf("battery initial soc row missing")
	}
}

func TestObjectiveCoefficients(t *testing.T) {
	reg := asset.Registry{Boiler: asset.Boiler{Enabled: true, MaxHeatMW: 2, Efficiency: 0.8}}
	prices := pricing.NewResolver(pricing.Config{HeatPriceEURMWh: 100, GasFeeEURMWh: 5})
	h := flatHorizon(1, 50, 35, 1)
	m, err := Build(h, reg, prices, Settings{CoverageTarget: 1, ShortfallPenaltyEURMWh: 500})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	vars := m.Variables()
	boilCol, _ := vars.BoilerHeat[0].Index()
	want := 100 - (35.0+5.0)/0.8
	if math.Abs(m.mip.ColCosts[boilCol]-want) > 1e-12 {
		t.Fatalf("boiler coefficient: got %v want %v", m.mip.ColCosts[boilCol], want)
	}
	shortCol, _ := vars.Shortfall[0].Index()
	if m.mip.ColCosts[shortCol] != -500 {
		t.Fatalf("shortfall coefficient: %v", m.mip.ColCosts[shortCol])
	}
	impCol, _ := vars.GridImport[0].Index()
	if m.mip.ColCosts[impCol] != -50 {
		t.Fatalf("import coefficient: %v", m.mip.ColCosts[impCol])
	}
}

func TestSolutionSeriesAndOn(t *testing.T) {
	values := []float64{1.5, 0.7}
	sol := NewSolution(StatusFeasible, 12, values)
	v0 := Var{col: 0, live: true}
	v1 := Var{col: 1, live: true}
	series := sol.Series([]Var{v0, v1, {}})
	if series[0] != 1.5 || series[1] != 0.7 || series[2] != 0 {
		t.Fatalf("series: %v", series)
	}
	if !sol.On(v1) || sol.On(Var{}) {
		t.Fatalf("on interpretation wrong")
	}
	if !sol.Status.Usable() {
		t.Fatalf("feasible must be usable")
	}
}
