package optimizer

import "fmt"

// Settings are the run-level knobs shared by the model builder and the solver.
type Settings struct {
	// CoverageTarget is the demand fraction that must be met before the
	// shortfall penalty applies.
	CoverageTarget float64 `json:"coverage_target"`
	// ShortfallPenaltyEURMWh prices unmet heat. It must dominate the heat
	// sale price or the solver will quietly prefer under-delivery.
	ShortfallPenaltyEURMWh float64 `json:"shortfall_penalty_eur_mwh"`
	TimeLimitSeconds       float64 `json:"time_limit_seconds"`
	MIPRelGap              float64 `json:"mip_rel_gap"`
}

// SetDefaults fills unset solver knobs.
func (s *Settings) SetDefaults() {
	if s.TimeLimitSeconds == 0 {
		s.TimeLimitSeconds = 300
	}
	if s.ShortfallPenaltyEURMWh == 0 {
		s.ShortfallPenaltyEURMWh = 500
	}
}

// Validate checks the settings ranges.
func (s *Settings) Validate() error {
	if s.CoverageTarget < 0 || s.CoverageTarget > 1 {
		return fmt.Errorf("coverage_target must be in [0,1], got %v", s.CoverageTarget)
	}
	if s.ShortfallPenaltyEURMWh < 0 {
		return fmt.Errorf("shortfall_penalty_eur_mwh must be >= 0, got %v", s.ShortfallPenaltyEURMWh)
	}
	if s.TimeLimitSeconds <= 0 {
		return fmt.Errorf("time_limit_seconds must be > 0, got %v", s.TimeLimitSeconds)
	}
	if s.MIPRelGap < 0 {
		return fmt.Errorf("mip_rel_gap must be >= 0, got %v", s.MIPRelGap)
	}
	return nil
}
