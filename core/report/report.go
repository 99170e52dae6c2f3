package report

import (
	"fmt"
	"math"
	"time"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/horizon"
	"github.com/pkucera/chpdispatch/core/optimizer"
	"github.com/pkucera/chpdispatch/core/pricing"
)

// ReconciliationTolerance is the relative tolerance between the recomputed
// total margin and the solver-reported objective.
const ReconciliationTolerance = 1e-3

// ReconciliationError means the extractor's independent recomputation of the
// economics disagrees with the solver objective. That is a modeling bug, never
// a data condition.
type ReconciliationError struct {
	Recomputed float64
	Reported   float64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("recomputed margin %.6f disagrees with solver objective %.6f beyond %g relative tolerance",
		e.Recomputed, e.Reported, ReconciliationTolerance)
}

// Row is the per-step physical and economic record, the sole authoritative
// input for downstream reporting. Prices carry the same resolution and fee
// rules the objective used.
type Row struct {
	Index     int
	Timestamp time.Time

	HeatDemandMW    float64
	HeatDeliveredMW float64
	ShortfallMW     float64

	CHPHeatMW            float64
	BoilerHeatMW         float64
	ElectricBoilerHeatMW float64
	HeatImportMW         float64

	TESChargeMW    float64
	TESDischargeMW float64
	TESSOCMWh      float64

	BatteryChargeMW    float64
	BatteryDischargeMW float64
	BatterySOCMWh      float64

	CHPOn            bool
	CHPStart         bool
	CHPElectricityMW float64
	SolarMW          float64

	ElectricBoilerElectricityMW float64
	GridImportMW                float64
	GridExportMW                float64

	ElectricityPriceEURMWh float64
	GasPriceEURMWh         float64

	MarginEUR           float64
	CumulativeMarginEUR float64
}

// Summary aggregates one run.
type Summary struct {
	RunID         string
	SolverStatus  optimizer.Status
	ObjectiveEUR  float64
	SolveDuration time.Duration

	TotalMarginEUR          float64
	TotalShortfallMWh       float64
	CoveragePercent         float64
	TotalExportMWh          float64
	TotalGridImportMWh      float64
	TotalLocalGenerationMWh float64
	CHPOperatingHours       int
}

// Result bundles the extracted rows with the derived aggregates.
type Result struct {
	Rows      []Row
	Summary   Summary
	Monthly   []MonthlyAggregate
	HourOfDay []HourOfDayAggregate
}

// Extract converts a solution into ReportRows, recomputes every economic term
// independently of the solver's objective accumulation, reconciles the two and
// derives the aggregates. Extraction is a pure function of its inputs: re-running
// it on the same solution yields identical rows.
func Extract(h *horizon.Horizon, assets asset.Registry, prices pricing.Resolver,
	settings optimizer.Settings, vars optimizer.Variables, sol *optimizer.Solution) (*Result, error) {

	if !sol.Status.Usable() {
		return nil, fmt.Errorf("extract: solution status %s has no values", sol.Status)
	}

	rows := make([]Row, h.Len())
	cum := 0.0
	for i, step := range h.Steps {
		row := Row{
			Index:     i,
			Timestamp: step.Timestamp,

			HeatDemandMW: step.HeatDemandMW,
			ShortfallMW:  sol.Value(vars.Shortfall[i]),

			CHPHeatMW:            sol.Value(vars.CHPHeat[i]),
			BoilerHeatMW:         sol.Value(vars.BoilerHeat[i]),
			ElectricBoilerHeatMW: sol.Value(vars.ElectricBoilerHeat[i]),
			HeatImportMW:         sol.Value(vars.HeatImport[i]),

			TESChargeMW:    sol.Value(vars.TESCharge[i]),
			TESDischargeMW: sol.Value(vars.TESDischarge[i]),
			TESSOCMWh:      sol.Value(vars.TESSOC[i+1]),

			BatteryChargeMW:    sol.Value(vars.BatteryCharge[i]),
			BatteryDischargeMW: sol.Value(vars.BatteryDischarge[i]),
			BatterySOCMWh:      sol.Value(vars.BatterySOC[i+1]),

			CHPOn:    sol.On(vars.CHPOn[i]),
			CHPStart: sol.On(vars.CHPStart[i]),

			GridImportMW: sol.Value(vars.GridImport[i]),
			GridExportMW: sol.Value(vars.GridExport[i]),

			ElectricityPriceEURMWh: step.ElectricityEURMWh,
			GasPriceEURMWh:         step.GasEURMWh,
		}

		if assets.CHP.Enabled {
			row.CHPElectricityMW = row.CHPHeatMW * assets.CHP.PowerToHeatRatio()
		}
		if assets.Solar.Enabled {
			row.SolarMW = step.SolarCapacityFactor * assets.Solar.InstalledMW
		}
		if assets.ElectricBoiler.Enabled {
			row.ElectricBoilerElectricityMW = row.ElectricBoilerHeatMW / assets.ElectricBoiler.Efficiency
		}
		row.HeatDeliveredMW = row.CHPHeatMW + row.BoilerHeatMW + row.ElectricBoilerHeatMW +
			row.HeatImportMW + row.TESDischargeMW - row.TESChargeMW

		row.MarginEUR = stepMargin(assets, prices, settings, sol, vars, i, row)
		cum += row.MarginEUR
		row.CumulativeMarginEUR = cum
		rows[i] = row
	}

	total := cum
	if diff := math.Abs(total - sol.Objective); diff > ReconciliationTolerance*math.Max(1, math.Abs(sol.Objective)) {
		return nil, &ReconciliationError{Recomputed: total, Reported: sol.Objective}
	}

	return &Result{
		Rows:      rows,
		Summary:   summarize(rows, settings, sol),
		Monthly:   monthlyAggregates(rows),
		HourOfDay: hourOfDayAggregates(rows),
	}, nil
}

// stepMargin prices one step with exactly the rules the objective used.
func stepMargin(assets asset.Registry, prices pricing.Resolver, settings optimizer.Settings,
	sol *optimizer.Solution, vars optimizer.Variables, i int, row Row) float64 {

	revenue := prices.HeatPrice()*row.HeatDeliveredMW +
		(prices.ExportPrice(row.ElectricityPriceEURMWh)-prices.ExportFee())*row.GridExportMW

	costs := (row.ElectricityPriceEURMWh + prices.ImportFee()) * row.GridImportMW
	if chp := assets.CHP; chp.Enabled {
		fuel := prices.FuelPrice(chp.FuelPrice, row.GasPriceEURMWh) + prices.FuelFee()
		costs += fuel * row.CHPHeatMW / chp.ThermalEfficiency
		costs += chp.StartCostEUR * sol.Value(vars.CHPStart[i])
	}
	if bl := assets.Boiler; bl.Enabled {
		fuel := prices.FuelPrice(bl.FuelPrice, row.GasPriceEURMWh) + prices.FuelFee()
		costs += fuel * row.BoilerHeatMW / bl.Efficiency
	}
	if eb := assets.ElectricBoiler; eb.Enabled {
		ee := prices.ElectricityPrice(eb.ElectricityPrice, row.ElectricityPriceEURMWh) + prices.ImportFee()
		costs += ee * row.ElectricBoilerElectricityMW
	}
	if hi := assets.HeatImport; hi.Enabled {
		costs += hi.PriceEURMWh * row.HeatImportMW
	}
	if bat := assets.Battery; bat.Enabled {
		costs += bat.ThroughputCostEUR * (row.BatteryChargeMW + row.BatteryDischargeMW)
		if bat.ChargeFeeEnabled {
			costs += prices.RawImportFee() * row.BatteryChargeMW
		}
		if bat.DischargeFeeEnabled {
			costs += prices.RawExportFee() * row.BatteryDischargeMW
		}
	}
	costs += settings.ShortfallPenaltyEURMWh * row.ShortfallMW

	return revenue - costs
}

func summarize(rows []Row, settings optimizer.Settings, sol *optimizer.Solution) Summary {
	s := Summary{
		SolverStatus: sol.Status,
		ObjectiveEUR: sol.Objective,
	}
	targetHeat := 0.0
	for _, r := range rows {
		s.TotalMarginEUR += r.MarginEUR
		s.TotalShortfallMWh += r.ShortfallMW
		s.TotalExportMWh += r.GridExportMW
		s.TotalGridImportMWh += r.GridImportMW
		s.TotalLocalGenerationMWh += r.CHPElectricityMW + r.SolarMW
		if r.CHPOn {
			s.CHPOperatingHours++
		}
		targetHeat += r.HeatDemandMW * settings.CoverageTarget
	}
	if targetHeat > 0 {
		s.CoveragePercent = 100 * (1 - s.TotalShortfallMWh/targetHeat)
	} else {
		s.CoveragePercent = 100
	}
	return s
}
