package pricing

import "testing"

func TestOverrideResolve(t *testing.T) {
	cases := []struct {
		name   string
		o      Override
		market float64
		want   float64
	}{
		{"disabled", Override{}, 80, 80},
		{"pure fixed", Override{Enabled: true, Ratio: 1, PriceEURMWh: 50}, 80, 50},
		{"pure market", Override{Enabled: true, Ratio: 0, PriceEURMWh: 50}, 80, 80},
		{"blend", Override{Enabled: true, Ratio: 0.8, PriceEURMWh: 100}, 50, 90},
	}
	for _, c := range cases {
		if got := c.o.Resolve(c.market); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestOverrideValidate(t *testing.T) {
	o := Override{Enabled: true, Ratio: 1.5}
	if err := o.Validate("export_price"); err == nil {
		t.Fatalf("expected ratio error")
	}
	o.Ratio = 0.5
	if err := o.Validate("export_price"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolverFeeWaiver(t *testing.T) {
	cfg := Config{
		ElectricityBuyFeeEURMWh:  33,
		ElectricitySellFeeEURMWh: 2,
		GasFeeEURMWh:             5,
	}

	r := NewResolver(cfg)
	if r.ImportFee() != 33 || r.ExportFee() != 2 {
		t.Fatalf("fees should apply without waiver")
	}

	cfg.InternalConsumptionWaiver = true
	r = NewResolver(cfg)
	if r.ImportFee() != 0 || r.ExportFee() != 0 {
		t.Fatalf("waiver should zero grid fees")
	}
	if r.RawImportFee() != 33 || r.RawExportFee() != 2 {
		t.Fatalf("raw fees must ignore the waiver")
	}
	if r.FuelFee() != 5 {
		t.Fatalf("gas fee is never waived")
	}
}

func TestResolverExportBlend(t *testing.T) {
	r := NewResolver(Config{ExportPrice: Override{Enabled: true, Ratio: 0.8, PriceEURMWh: 100}})
	if got := r.ExportPrice(50); got != 90 {
		t.Fatalf("got %v want 90", got)
	}
}
