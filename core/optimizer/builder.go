package optimizer

import (
	"fmt"
	"math"

	"github.com/bartolsthoorn/gohighs/highs"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/pricing"
)

// OverproductionTolMW is the slack allowed above demand in the heat cap.
const OverproductionTolMW = 1e-3

// Variables exposes the decision-variable handles of a built model, one slice
// entry per time step. Disabled assets carry dead handles that resolve to 0.
// Storage SOC series have T+1 entries covering the step boundaries.
type Variables struct {
	CHPHeat  []Var
	CHPOn    []Var
	CHPStart []Var

	BoilerHeat         []Var
	ElectricBoilerHeat []Var
	HeatImport         []Var

	TESSOC       []Var
	TESCharge    []Var
	TESDischarge []Var

	BatterySOC       []Var
	BatteryCharge    []Var
	BatteryDischarge []Var

	GridImport []Var
	GridExport []Var
	Shortfall  []Var
}

// Model is an assembled MILP for one horizon, ready to solve.
type Model struct {
	mip      highs.Model
	vars     Variables
	steps    int
	settings Settings
}

// Variables returns the variable handles of the model.
func (m *Model) Variables() Variables { return m.vars }

// Steps returns the horizon length.
func (m *Model) Steps() int { return m.steps }

// NumColumns returns the number of decision variables.
func (m *Model) NumColumns() int { return len(m.mip.ColCosts) }

// NumRows returns the number of constraints.
func (m *Model) NumRows() int { return len(m.mip.RowLower) }

type builder struct {
	mip highs.Model
}

func (b *builder) newVar(lower, upper float64, vt highs.VariableType) Var {
	col := len(b.mip.ColCosts)
	b.mip.ColCosts = append(b.mip.ColCosts, 0)
	b.mip.ColLower = append(b.mip.ColLower, lower)
	b.mip.ColUpper = append(b.mip.ColUpper, upper)
	b.mip.VarTypes = append(b.mip.VarTypes, vt)
	return Var{col: col, live: true}
}

func (b *builder) newSeries(n int, lower, upper float64, vt highs.VariableType) []Var {
	vars := make([]Var, n)
	for i := range vars {
		vars[i] = b.newVar(lower, upper, vt)
	}
	return vars
}

// deadSeries stands in for a disabled asset: every handle resolves to 0 and
// contributes nothing to any row.
func deadSeries(n int) []Var { return make([]Var, n) }

// addCost accumulates an objective coefficient on a variable.
func (b *builder) addCost(v Var, coeff float64) {
	if v.live {
		b.mip.ColCosts[v.col] += coeff
	}
}

// expr accumulates one sparse constraint row. Dead handles are skipped, so the
// same balance expressions work for every combination of enabled assets.
type expr struct {
	cols []int
	vals []float64
}

func (e *expr) add(v Var, coeff float64) *expr {
	if v.live && coeff != 0 {
		e.cols = append(e.cols, v.col)
		e.vals = append(e.vals, coeff)
	}
	return e
}

func (b *builder) addRow(lower float64, e *expr, upper float64) {
	b.mip.AddSparseRow(lower, e.cols, e.vals, upper)
}

func (b *builder) eq(e *expr, rhs float64) { b.addRow(rhs, e, rhs) }
func (b *builder) le(e *expr, rhs float64) { b.addRow(math.Inf(-1), e, rhs) }
func (b *builder) ge(e *expr, rhs float64) { b.addRow(rhs, e, math.Inf(1)) }

// Build assembles the dispatch MILP: bounds, storage recursions, cogeneration
// commitment logic, heat and electricity balances and the economic objective.
// The registry must already be validated.
func Build(h *horizon.Horizon, assets asset.Registry, prices pricing.Resolver, settings Settings) (*Model, error) {
	t := h.Len()
	if t == 0 {
		return nil, fmt.Errorf("build model: empty horizon")
	}

	b := &builder{}
	b.mip.Maximize = true

	vars := declareVariables(b, t, assets)
	attachStorage(b, t, assets, vars)
	attachCommitment(b, t, assets.CHP, vars)
	attachBalances(b, h, assets, settings, vars)
	attachObjective(b, h, assets, prices, settings, vars)

	return &Model{mip: b.mip, vars: vars, steps: t, settings: settings}, nil
}

func declareVariables(b *builder, t int, assets asset.Registry) Variables {
	vars := Variables{
		CHPHeat:  deadSeries(t),
		CHPOn:    deadSeries(t),
		CHPStart: deadSeries(t),

		BoilerHeat:         deadSeries(t),
		ElectricBoilerHeat: deadSeries(t),
		HeatImport:         deadSeries(t),

		TESSOC:       deadSeries(t + 1),
		TESCharge:    deadSeries(t),
		TESDischarge: deadSeries(t),

		BatterySOC:       deadSeries(t + 1),
		BatteryCharge:    deadSeries(t),
		BatteryDischarge: deadSeries(t),
	}

	if chp := assets.CHP; chp.Enabled {
		vars.CHPHeat = b.newSeries(t, 0, chp.ThermalCapacityMW, highs.Continuous)
		vars.CHPOn = b.newSeries(t, 0, 1, highs.Integer)
		vars.CHPStart = b.newSeries(t, 0, 1, highs.Integer)
	}
	if bl := assets.Boiler; bl.Enabled {
		vars.BoilerHeat = b.newSeries(t, 0, bl.MaxHeatMW, highs.Continuous)
	}
	if eb := assets.ElectricBoiler; eb.Enabled {
		vars.ElectricBoilerHeat = b.newSeries(t, 0, eb.MaxHeatMW, highs.Continuous)
	}
	if hi := assets.HeatImport; hi.Enabled {
		vars.HeatImport = b.newSeries(t, 0, hi.MaxHeatMW, highs.Continuous)
	}
	if tes := assets.ThermalStorage; tes.Enabled {
		vars.TESSOC = b.newSeries(t+1, 0, tes.CapacityMWh, highs.Continuous)
		vars.TESCharge = b.newSeries(t, 0, math.Inf(1), highs.Continuous)
		vars.TESDischarge = b.newSeries(t, 0, math.Inf(1), highs.Continuous)
	}
	if bat := assets.Battery; bat.Enabled {
		vars.BatterySOC = b.newSeries(t+1, 0, bat.CapacityMWh, highs.Continuous)
		vars.BatteryCharge = b.newSeries(t, 0, bat.MaxPowerMW, highs.Continuous)
		vars.BatteryDischarge = b.newSeries(t, 0, bat.MaxPowerMW, highs.Continuous)
	}

	vars.GridImport = b.newSeries(t, 0, math.Inf(1), highs.Continuous)
	vars.GridExport = b.newSeries(t, 0, math.Inf(1), highs.Continuous)
	vars.Shortfall = b.newSeries(t, 0, math.Inf(1), highs.Continuous)
	return vars
}

func attachStorage(b *builder, t int, assets asset.Registry, vars Variables) {
	if tes := assets.ThermalStorage; tes.Enabled {
		b.eq(new(expr).add(vars.TESSOC[0], 1), tes.InitialSOCFraction*tes.CapacityMWh)
		for i := 0; i < t; i++ {
			// soc[i+1] = soc[i]*(1-loss) + charge - discharge
			e := new(expr).
				add(vars.TESSOC[i+1], 1).
				add(vars.TESSOC[i], -(1 - tes.LossPerHour)).
				add(vars.TESCharge[i], -1).
				add(vars.TESDischarge[i], 1)
			b.eq(e, 0)
		}
	}
	if bat := assets.Battery; bat.Enabled {
		b.eq(new(expr).add(vars.BatterySOC[0], 1), bat.InitialSOCFraction*bat.CapacityMWh)
		for i := 0; i < t; i++ {
			// soc[i+1] = soc[i] + charge*eff - discharge/eff
			e := new(expr).
				add(vars.BatterySOC[i+1], 1).
				add(vars.BatterySOC[i], -1).
				add(vars.BatteryCharge[i], -bat.Efficiency).
				add(vars.BatteryDischarge[i], 1/bat.Efficiency)
			b.eq(e, 0)
		}
	}
}

// attachCommitment links the cogeneration flow to its on-state, detects start
// events and holds the unit on for the minimum run time. Run time is enforced
// forward from each detected start only; there is no minimum off time.
func attachCommitment(b *builder, t int, chp asset.CHP, vars Variables) {
	if !chp.Enabled {
		return
	}
	for i := 0; i < t; i++ {
		b.le(new(expr).add(vars.CHPHeat[i], 1).add(vars.CHPOn[i], -chp.ThermalCapacityMW), 0)
		b.ge(new(expr).add(vars.CHPHeat[i], 1).add(vars.CHPOn[i], -chp.MinLoadFraction*chp.ThermalCapacityMW), 0)
	}

	b.eq(new(expr).add(vars.CHPStart[0], 1).add(vars.CHPOn[0], -1), 0)
	for i := 1; i < t; i++ {
		b.ge(new(expr).add(vars.CHPStart[i], 1).add(vars.CHPOn[i], -1).add(vars.CHPOn[i-1], 1), 0)
		b.le(new(expr).add(vars.CHPStart[i], 1).add(vars.CHPOn[i], -1), 0)
		b.le(new(expr).add(vars.CHPStart[i], 1).add(vars.CHPOn[i-1], 1), 1)
	}

	for i := 0; i < t; i++ {
		for dt := 1; dt < chp.MinRunTimeHours; dt++ {
			if i+dt < t {
				b.ge(new(expr).add(vars.CHPOn[i+dt], 1).add(vars.CHPStart[i], -1), 0)
			}
		}
	}
}

func attachBalances(b *builder, h *horizon.Horizon, assets asset.Registry, settings Settings, vars Variables) {
	ratio := 0.0
	if assets.CHP.Enabled {
		ratio = assets.CHP.PowerToHeatRatio()
	}
	ebEff := assets.ElectricBoiler.Efficiency

	for i, step := range h.Steps {
		delivered := func() *expr {
			return new(expr).
				add(vars.CHPHeat[i], 1).
				add(vars.BoilerHeat[i], 1).
				add(vars.ElectricBoilerHeat[i], 1).
				add(vars.HeatImport[i], 1).
				add(vars.TESDischarge[i], 1).
				add(vars.TESCharge[i], -1)
		}

		b.ge(delivered().add(vars.Shortfall[i], 1), step.HeatDemandMW*settings.CoverageTarget)
		b.le(delivered(), step.HeatDemandMW+OverproductionTolMW)

		pv := 0.0
		if assets.Solar.Enabled {
			pv = step.SolarCapacityFactor * assets.Solar.InstalledMW
		}

		// generation + import + discharge = consumption + charge + export
		balance := new(expr).
			add(vars.CHPHeat[i], ratio).
			add(vars.GridImport[i], 1).
			add(vars.BatteryDischarge[i], 1).
			add(vars.BatteryCharge[i], -1).
			add(vars.GridExport[i], -1)
		if assets.ElectricBoiler.Enabled {
			balance.add(vars.ElectricBoilerHeat[i], -1/ebEff)
		}
		b.eq(balance, -pv)

		// export may carry local generation and storage only, never imports
		ceiling := new(expr).
			add(vars.GridExport[i], 1).
			add(vars.CHPHeat[i], -ratio).
			add(vars.BatteryDischarge[i], -1)
		b.le(ceiling, pv)
	}
}

func attachObjective(b *builder, h *horizon.Horizon, assets asset.Registry, prices pricing.Resolver, settings Settings, vars Variables) {
	heatPrice := prices.HeatPrice()

	for i, step := range h.Steps {
		// heat sale revenue on everything delivered, net of storage charging
		b.addCost(vars.CHPHeat[i], heatPrice)
		b.addCost(vars.BoilerHeat[i], heatPrice)
		b.addCost(vars.ElectricBoilerHeat[i], heatPrice)
		b.addCost(vars.HeatImport[i], heatPrice)
		b.addCost(vars.TESDischarge[i], heatPrice)
		b.addCost(vars.TESCharge[i], -heatPrice)

		b.addCost(vars.GridExport[i], prices.ExportPrice(step.ElectricityEURMWh)-prices.ExportFee())

		if chp := assets.CHP; chp.Enabled {
			fuel := prices.FuelPrice(chp.FuelPrice, step.GasEURMWh) + prices.FuelFee()
			b.addCost(vars.CHPHeat[i], -fuel/chp.ThermalEfficiency)
			b.addCost(vars.CHPStart[i], -chp.StartCostEUR)
		}
		if bl := assets.Boiler; bl.Enabled {
			fuel := prices.FuelPrice(bl.FuelPrice, step.GasEURMWh) + prices.FuelFee()
			b.addCost(vars.BoilerHeat[i], -fuel/bl.Efficiency)
		}
		if eb := assets.ElectricBoiler; eb.Enabled {
			ee := prices.ElectricityPrice(eb.ElectricityPrice, step.ElectricityEURMWh) + prices.ImportFee()
			b.addCost(vars.ElectricBoilerHeat[i], -ee/eb.Efficiency)
		}
		if hi := assets.HeatImport; hi.Enabled {
			b.addCost(vars.HeatImport[i], -hi.PriceEURMWh)
		}
		if bat := assets.Battery; bat.Enabled {
			chargeCost := bat.ThroughputCostEUR
			if bat.ChargeFeeEnabled {
				chargeCost += prices.RawImportFee()
			}
			dischargeCost := bat.ThroughputCostEUR
			if bat.DischargeFeeEnabled {
				dischargeCost += prices.RawExportFee()
			}
			b.addCost(vars.BatteryCharge[i], -chargeCost)
			b.addCost(vars.BatteryDischarge[i], -dischargeCost)
		}

		b.addCost(vars.GridImport[i], -(step.ElectricityEURMWh + prices.ImportFee()))
		b.addCost(vars.Shortfall[i], -settings.ShortfallPenaltyEURMWh)
	}
}
