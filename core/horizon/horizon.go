package horizon

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MarketPoint is one row of the forward price curve.
type MarketPoint struct {
	Timestamp         time.Time
	ElectricityEURMWh float64
	GasEURMWh         float64
}

// SitePoint is one row of the site demand/generation profile. The solar value
// is a capacity factor in [0,1]; values outside that range are clipped during
// alignment.
type SitePoint struct {
	Timestamp           time.Time
	HeatDemandMW        float64
	SolarCapacityFactor float64
}

// Step is one hour of the assembled horizon. Immutable once built.
type Step struct {
	Index               int
	Timestamp           time.Time
	ElectricityEURMWh   float64
	GasEURMWh           float64
	HeatDemandMW        float64
	SolarCapacityFactor float64
}

// Horizon is the ordered hourly sequence the optimizer runs over.
type Horizon struct {
	Steps []Step
}

// Len returns the number of time steps.
func (h *Horizon) Len() int { return len(h.Steps) }

// AlignmentError indicates the market and site series share no usable time key.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("series alignment failed: %s", e.Reason)
}

// mdhKey collapses a timestamp to month-day-hour, the fallback join key when
// the two series come from different calendar years.
func mdhKey(ts time.Time) string {
	return fmt.Sprintf("%02d-%02d-%02d", ts.Month(), ts.Day(), ts.Hour())
}

// Align inner-joins the market curve with the site profile. Rows are matched
// by exact timestamp first; if that yields nothing, by month-day-hour. The
// horizon keeps the market series order and timestamps.
func Align(market []MarketPoint, site []SitePoint) (*Horizon, error) {
	if len(market) == 0 {
		return nil, &AlignmentError{Reason: "market series is empty"}
	}
	if len(site) == 0 {
		return nil, &AlignmentError{Reason: "site series is empty"}
	}

	byTS := make(map[time.Time]SitePoint, len(site))
	byMDH := make(map[string]SitePoint, len(site))
	for _, s := range site {
		byTS[s.Timestamp] = s
		byMDH[mdhKey(s.Timestamp)] = s
	}

	steps := joinSteps(market, func(m MarketPoint) (SitePoint, bool) {
		s, ok := byTS[m.Timestamp]
		return s, ok
	})
	if len(steps) == 0 {
		steps = joinSteps(market, func(m MarketPoint) (SitePoint, bool) {
			s, ok := byMDH[mdhKey(m.Timestamp)]
			return s, ok
		})
	}
	if len(steps) == 0 {
		return nil, &AlignmentError{Reason: "no overlap by timestamp or month-day-hour key"}
	}
	return &Horizon{Steps: steps}, nil
}

func joinSteps(market []MarketPoint, lookup func(MarketPoint) (SitePoint, bool)) []Step {
	var steps []Step
	for _, m := range market {
		s, ok := lookup(m)
		if !ok {
			continue
		}
		cf := s.SolarCapacityFactor
		if cf < 0 {
			cf = 0
		}
		if cf > 1 {
			cf = 1
		}
		steps = append(steps, Step{
			Index:               len(steps),
			Timestamp:           m.Timestamp,
			ElectricityEURMWh:   m.ElectricityEURMWh,
			GasEURMWh:           m.GasEURMWh,
			HeatDemandMW:        s.HeatDemandMW,
			SolarCapacityFactor: cf,
		})
	}
	return steps
}

// RebaseMarket shifts the whole curve so its mean hits the target base price.
// Nil targets leave the corresponding commodity untouched. The hourly shape of
// the curve is preserved.
func RebaseMarket(market []MarketPoint, targetElectricity, targetGas *float64) []MarketPoint {
	if len(market) == 0 || (targetElectricity == nil && targetGas == nil) {
		return market
	}
	ee := make([]float64, len(market))
	gas := make([]float64, len(market))
	for i, m := range market {
		ee[i] = m.ElectricityEURMWh
		gas[i] = m.GasEURMWh
	}
	var eeShift, gasShift float64
	if targetElectricity != nil {
		eeShift = *targetElectricity - stat.Mean(ee, nil)
	}
	if targetGas != nil {
		gasShift = *targetGas - stat.Mean(gas, nil)
	}
	out := make([]MarketPoint, len(market))
	for i, m := range market {
		m.ElectricityEURMWh += eeShift
		m.GasEURMWh += gasShift
		out[i] = m
	}
	return out
}
