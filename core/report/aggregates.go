package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MonthlyAggregate sums one calendar month of the horizon.
type MonthlyAggregate struct {
	Month time.Month

	MarginEUR             float64
	CHPHeatMWh            float64
	BoilerHeatMWh         float64
	ElectricBoilerHeatMWh float64
	ExportMWh             float64
	GridImportMWh         float64
	ShortfallMWh          float64
}

// HourOfDayAggregate averages one hour-of-day slot across all days.
type HourOfDayAggregate struct {
	Hour int

	MeanHeatDemandMW         float64
	MeanCHPHeatMW            float64
	MeanBoilerHeatMW         float64
	MeanElectricBoilerHeatMW float64
	MeanExportMW             float64
	MeanGridImportMW         float64
	MeanElectricityEURMWh    float64
}

func monthlyAggregates(rows []Row) []MonthlyAggregate {
	byMonth := make(map[time.Month]*MonthlyAggregate)
	for _, r := range rows {
		m := r.Timestamp.Month()
		agg, ok := byMonth[m]
		if !ok {
			agg = &MonthlyAggregate{Month: m}
			byMonth[m] = agg
		}
		agg.MarginEUR += r.MarginEUR
		agg.CHPHeatMWh += r.CHPHeatMW
		agg.BoilerHeatMWh += r.BoilerHeatMW
		agg.ElectricBoilerHeatMWh += r.ElectricBoilerHeatMW
		agg.ExportMWh += r.GridExportMW
		agg.GridImportMWh += r.GridImportMW
		agg.ShortfallMWh += r.ShortfallMW
	}

	out := make([]MonthlyAggregate, 0, len(byMonth))
	for _, agg := range byMonth {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func hourOfDayAggregates(rows []Row) []HourOfDayAggregate {
	type samples struct {
		demand, chp, boiler, eboiler, export, imp, price []float64
	}
	byHour := make(map[int]*samples)
	for _, r := range rows {
		h := r.Timestamp.Hour()
		s, ok := byHour[h]
		if !ok {
			s = &samples{}
			byHour[h] = s
		}
		s.demand = append(s.demand, r.HeatDemandMW)
		s.chp = append(s.chp, r.CHPHeatMW)
		s.boiler = append(s.boiler, r.BoilerHeatMW)
		s.eboiler = append(s.eboiler, r.ElectricBoilerHeatMW)
		s.export = append(s.export, r.GridExportMW)
		s.imp = append(s.imp, r.GridImportMW)
		s.price = append(s.price, r.ElectricityPriceEURMWh)
	}

	out := make([]HourOfDayAggregate, 0, len(byHour))
	for h, s := range byHour {
		out = append(out, HourOfDayAggregate{
			Hour:                     h,
			MeanHeatDemandMW:         stat.Mean(s.demand, nil),
			MeanCHPHeatMW:            stat.Mean(s.chp, nil),
			MeanBoilerHeatMW:         stat.Mean(s.boiler, nil),
			MeanElectricBoilerHeatMW: stat.Mean(s.eboiler, nil),
			MeanExportMW:             stat.Mean(s.export, nil),
			MeanGridImportMW:         stat.Mean(s.imp, nil),
			MeanElectricityEURMWh:    stat.Mean(s.price, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}
