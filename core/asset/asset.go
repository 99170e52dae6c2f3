package asset

import (
	"fmt"

	"github.com/pkucera/chpdispatch/core/pricing"
)

// ConfigurationError reports an invalid or missing technical parameter. The
// offending field is always named; values are never silently clamped.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func errf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CHP is a cogeneration unit converting fuel into heat and electricity at a
// fixed ratio. Electrical capacity is derived, not configured.
type CHP struct {
	Enabled              bool             `json:"enabled"`
	ThermalCapacityMW    float64          `json:"thermal_capacity_mw"`
	ThermalEfficiency    float64          `json:"thermal_efficiency"`
	ElectricalEfficiency float64          `json:"electrical_efficiency"`
	MinLoadFraction      float64          `json:"min_load_fraction"`
	StartCostEUR         float64          `json:"start_cost_eur"`
	MinRunTimeHours      int              `json:"min_run_time_hours"`
	FuelPrice            pricing.Override `json:"fuel_price"`
}

// ElectricalCapacityMW derives the electrical rating from the thermal rating
// and the efficiency ratio.
func (c CHP) ElectricalCapacityMW() float64 {
	return c.ThermalCapacityMW * c.ElectricalEfficiency / c.ThermalEfficiency
}

// PowerToHeatRatio is the electrical output per unit of heat output.
func (c CHP) PowerToHeatRatio() float64 {
	return c.ElectricalEfficiency / c.ThermalEfficiency
}

func (c CHP) validate() error {
	if c.ThermalCapacityMW <= 0 {
		return errf("chp.thermal_capacity_mw", "must be > 0, got %v", c.ThermalCapacityMW)
	}
	if c.ThermalEfficiency <= 0 || c.ThermalEfficiency > 1 {
		return errf("chp.thermal_efficiency", "must be in (0,1], got %v", c.ThermalEfficiency)
	}
	if c.ElectricalEfficiency <= 0 || c.ElectricalEfficiency > 1 {
		return errf("chp.electrical_efficiency", "must be in (0,1], got %v", c.ElectricalEfficiency)
	}
	if c.MinLoadFraction < 0 || c.MinLoadFraction > 1 {
		return errf("chp.min_load_fraction", "must be in [0,1], got %v", c.MinLoadFraction)
	}
	if c.MinRunTimeHours < 1 {
		return errf("chp.min_run_time_hours", "must be >= 1, got %d", c.MinRunTimeHours)
	}
	if c.StartCostEUR < 0 {
		return errf("chp.start_cost_eur", "must be >= 0, got %v", c.StartCostEUR)
	}
	if err := c.FuelPrice.Validate("chp.fuel_price"); err != nil {
		return &ConfigurationError{Field: "chp.fuel_price", Reason: err.Error()}
	}
	return nil
}

// Boiler is a gas-fired heat-only boiler.
type Boiler struct {
	Enabled    bool             `json:"enabled"`
	MaxHeatMW  float64          `json:"max_heat_mw"`
	Efficiency float64          `json:"efficiency"`
	FuelPrice  pricing.Override `json:"fuel_price"`
}

func (b Boiler) validate() error {
	if b.MaxHeatMW <= 0 {
		return errf("boiler.max_heat_mw", "must be > 0, got %v", b.MaxHeatMW)
	}
	if b.Efficiency <= 0 || b.Efficiency > 1 {
		return errf("boiler.efficiency", "must be in (0,1], got %v", b.Efficiency)
	}
	if err := b.FuelPrice.Validate("boiler.fuel_price"); err != nil {
		return &ConfigurationError{Field: "boiler.fuel_price", Reason: err.Error()}
	}
	return nil
}

// ElectricBoiler converts purchased or locally generated electricity into heat.
type ElectricBoiler struct {
	Enabled          bool             `json:"enabled"`
	MaxHeatMW        float64          `json:"max_heat_mw"`
	Efficiency       float64          `json:"efficiency"`
	ElectricityPrice pricing.Override `json:"electricity_price"`
}

func (e ElectricBoiler) validate() error {
	if e.MaxHeatMW <= 0 {
		return errf("electric_boiler.max_heat_mw", "must be > 0, got %v", e.MaxHeatMW)
	}
	if e.Efficiency <= 0 || e.Efficiency > 1 {
		return errf("electric_boiler.efficiency", "must be in (0,1], got %v", e.Efficiency)
	}
	if err := e.ElectricityPrice.Validate("electric_boiler.electricity_price"); err != nil {
		return &ConfigurationError{Field: "electric_boiler.electricity_price", Reason: err.Error()}
	}
	return nil
}

// ThermalStorage is a hot water tank. Standing losses apply to the stored
// energy each hour; charge and discharge are lossless.
type ThermalStorage struct {
	Enabled            bool    `json:"enabled"`
	CapacityMWh        float64 `json:"capacity_mwh"`
	LossPerHour        float64 `json:"loss_per_hour"`
	InitialSOCFraction float64 `json:"initial_soc_fraction"`
}

func (s ThermalStorage) validate() error {
	if s.CapacityMWh <= 0 {
		return errf("thermal_storage.capacity_mwh", "must be > 0, got %v", s.CapacityMWh)
	}
	if s.LossPerHour < 0 || s.LossPerHour >= 1 {
		return errf("thermal_storage.loss_per_hour", "must be in [0,1), got %v", s.LossPerHour)
	}
	if s.InitialSOCFraction < 0 || s.InitialSOCFraction > 1 {
		return errf("thermal_storage.initial_soc_fraction", "must be in [0,1], got %v", s.InitialSOCFraction)
	}
	return nil
}

// Battery is an electrical store with a one-way efficiency applied on both
// charge and discharge and a wear cost per unit of throughput.
type Battery struct {
	Enabled             bool             `json:"enabled"`
	CapacityMWh         float64          `json:"capacity_mwh"`
	MaxPowerMW          float64          `json:"max_power_mw"`
	Efficiency          float64          `json:"efficiency"`
	ThroughputCostEUR   float64          `json:"throughput_cost_eur_mwh"`
	InitialSOCFraction  float64          `json:"initial_soc_fraction"`
	ChargeFeeEnabled    bool             `json:"charge_fee_enabled"`
	DischargeFeeEnabled bool             `json:"discharge_fee_enabled"`
	ElectricityPrice    pricing.Override `json:"electricity_price"`
}

func (b Battery) validate() error {
	if b.CapacityMWh <= 0 {
		return errf("battery.capacity_mwh", "must be > 0, got %v", b.CapacityMWh)
	}
	if b.MaxPowerMW <= 0 {
		return errf("battery.max_power_mw", "must be > 0, got %v", b.MaxPowerMW)
	}
	if b.Efficiency <= 0 || b.Efficiency > 1 {
		return errf("battery.efficiency", "must be in (0,1], got %v", b.Efficiency)
	}
	if b.ThroughputCostEUR < 0 {
		return errf("battery.throughput_cost_eur_mwh", "must be >= 0, got %v", b.ThroughputCostEUR)
	}
	if b.InitialSOCFraction < 0 || b.InitialSOCFraction > 1 {
		return errf("battery.initial_soc_fraction", "must be in [0,1], got %v", b.InitialSOCFraction)
	}
	if err := b.ElectricityPrice.Validate("battery.electricity_price"); err != nil {
		return &ConfigurationError{Field: "battery.electricity_price", Reason: err.Error()}
	}
	return nil
}

// Solar is a PV plant. Production per step is the site capacity factor times
// the installed power; it is a parameter, not a decision variable.
type Solar struct {
	Enabled     bool    `json:"enabled"`
	InstalledMW float64 `json:"installed_mw"`
}

func (s Solar) validate() error {
	if s.InstalledMW <= 0 {
		return errf("solar.installed_mw", "must be > 0, got %v", s.InstalledMW)
	}
	return nil
}

// HeatImport is a contracted external heat supply at a fixed price.
type HeatImport struct {
	Enabled     bool    `json:"enabled"`
	MaxHeatMW   float64 `json:"max_heat_mw"`
	PriceEURMWh float64 `json:"price_eur_mwh"`
}

func (h HeatImport) validate() error {
	if h.MaxHeatMW <= 0 {
		return errf("heat_import.max_heat_mw", "must be > 0, got %v", h.MaxHeatMW)
	}
	if h.PriceEURMWh < 0 {
		return errf("heat_import.price_eur_mwh", "must be >= 0, got %v", h.PriceEURMWh)
	}
	return nil
}

// Registry enumerates the technologies present at the site. Disabled assets
// contribute no variables, no constraints and no objective terms.
type Registry struct {
	CHP            CHP            `json:"chp"`
	Boiler         Boiler         `json:"boiler"`
	ElectricBoiler ElectricBoiler `json:"electric_boiler"`
	ThermalStorage ThermalStorage `json:"thermal_storage"`
	Battery        Battery        `json:"battery"`
	Solar          Solar          `json:"solar"`
	HeatImport     HeatImport     `json:"heat_import"`
}

// SetDefaults fills in parameters the operator usually leaves implicit.
func (r *Registry) SetDefaults() {
	if r.ThermalStorage.Enabled && r.ThermalStorage.InitialSOCFraction == 0 {
		r.ThermalStorage.InitialSOCFraction = 0.5
	}
	if r.Battery.Enabled && r.Battery.InitialSOCFraction == 0 {
		r.Battery.InitialSOCFraction = 0.2
	}
	if r.CHP.Enabled && r.CHP.MinRunTimeHours == 0 {
		r.CHP.MinRunTimeHours = 1
	}
}

// Validate checks every enabled technology and returns the first
// ConfigurationError found.
func (r *Registry) Validate() error {
	checks := []struct {
		enabled bool
		fn      func() error
	}{
		{r.CHP.Enabled, r.CHP.validate},
		{r.Boiler.Enabled, r.Boiler.validate},
		{r.ElectricBoiler.Enabled, r.ElectricBoiler.validate},
		{r.ThermalStorage.Enabled, r.ThermalStorage.validate},
		{r.Battery.Enabled, r.Battery.validate},
		{r.Solar.Enabled, r.Solar.validate},
		{r.HeatImport.Enabled, r.HeatImport.validate},
	}
	for _, c := range checks {
		if !c.enabled {
			continue
		}
		if err := c.fn(); err != nil {
			return err
		}
	}
	return nil
}

// EnabledNames lists the active technologies, for logging.
func (r *Registry) EnabledNames() []string {
	var names []string
	for _, e := range []struct {
		on   bool
		name string
	}{
		{r.CHP.Enabled, "chp"},
		{r.Boiler.Enabled, "boiler"},
		{r.ElectricBoiler.Enabled, "electric_boiler"},
		{r.ThermalStorage.Enabled, "thermal_storage"},
		{r.Battery.Enabled, "battery"},
		{r.Solar.Enabled, "solar"},
		{r.HeatImport.Enabled, "heat_import"},
	} {
		if e.on {
			names = append(names, e.name)
		}
	}
	return names
}
