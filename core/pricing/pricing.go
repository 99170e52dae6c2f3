package pricing

import "fmt"

// Override blends a contracted fixed price into a market price. A ratio of 1
// replaces the market price entirely, 0 keeps it untouched.
type Override struct {
	Enabled     bool    `json:"enabled"`
	Ratio       float64 `json:"ratio"`
	PriceEURMWh float64 `json:"price_eur_mwh"`
}

// Resolve returns the effective price for the given market price.
func (o Override) Resolve(market float64) float64 {
	if !o.Enabled {
		return market
	}
	return o.Ratio*o.PriceEURMWh + (1-o.Ratio)*market
}

// Validate checks the blend ratio.
func (o Override) Validate(field string) error {
	if o.Enabled && (o.Ratio < 0 || o.Ratio > 1) {
		return fmt.Errorf("%s.ratio must be in [0,1], got %v", field, o.Ratio)
	}
	return nil
}

// Config holds the site-wide commercial parameters: the heat sale price,
// distribution fees per commodity and the export price override.
type Config struct {
	HeatPriceEURMWh           float64  `json:"heat_price_eur_mwh"`
	ElectricityBuyFeeEURMWh   float64  `json:"electricity_buy_fee_eur_mwh"`
	ElectricitySellFeeEURMWh  float64  `json:"electricity_sell_fee_eur_mwh"`
	GasFeeEURMWh              float64  `json:"gas_fee_eur_mwh"`
	InternalConsumptionWaiver bool     `json:"internal_consumption_waiver"`
	ExportPrice               Override `json:"export_price"`
}

// Resolver answers every price and fee question a model term can ask, so the
// objective and the report apply exactly the same rules.
type Resolver struct {
	cfg Config
}

// NewResolver returns a Resolver over the given commercial configuration.
func NewResolver(cfg Config) Resolver {
	return Resolver{cfg: cfg}
}

// HeatPrice returns the heat sale price.
func (r Resolver) HeatPrice() float64 { return r.cfg.HeatPriceEURMWh }

// FuelPrice resolves the effective fuel price for an asset-level override.
func (r Resolver) FuelPrice(o Override, market float64) float64 {
	return o.Resolve(market)
}

// ElectricityPrice resolves the effective purchase price for an asset-level
// override.
func (r Resolver) ElectricityPrice(o Override, market float64) float64 {
	return o.Resolve(market)
}

// ExportPrice resolves the electricity sale price, applying the export
// override blend when enabled.
func (r Resolver) ExportPrice(market float64) float64 {
	return r.cfg.ExportPrice.Resolve(market)
}

// ImportFee returns the electricity distribution fee on grid purchases.
// Waived entirely when local generation is assumed to cover on-site use.
func (r Resolver) ImportFee() float64 {
	if r.cfg.InternalConsumptionWaiver {
		return 0
	}
	return r.cfg.ElectricityBuyFeeEURMWh
}

// ExportFee returns the electricity distribution fee on grid sales, subject to
// the same waiver.
func (r Resolver) ExportFee() float64 {
	if r.cfg.InternalConsumptionWaiver {
		return 0
	}
	return r.cfg.ElectricitySellFeeEURMWh
}

// RawImportFee returns the buy-side distribution fee ignoring the waiver.
// Battery arbitrage fees are charged explicitly per flow and never waived.
func (r Resolver) RawImportFee() float64 { return r.cfg.ElectricityBuyFeeEURMWh }

// RawExportFee returns the sell-side distribution fee ignoring the waiver.
func (r Resolver) RawExportFee() float64 { return r.cfg.ElectricitySellFeeEURMWh }

// FuelFee returns the gas distribution fee, applied to every unit of fuel
// burned regardless of the waiver.
func (r Resolver) FuelFee() float64 { return r.cfg.GasFeeEURMWh }
