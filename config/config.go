package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pkucera/chpdispatch/core/asset"
	"github.com/pkucera/chpdispatch/core/optimizer"
	"github.com/pkucera/chpdispatch/core/pricing"
	"github.com/pkucera/chpdispatch/infra/metrics"
)

// Config is the full service configuration for one optimization request.
type Config struct {
	Series    SeriesConfig       `json:"series"`
	Assets    asset.Registry     `json:"assets"`
	Pricing   pricing.Config     `json:"pricing"`
	Optimizer optimizer.Settings `json:"optimizer"`
	Metrics   metrics.Config     `json:"metrics"`
}

// SeriesConfig locates the input series and optionally rebases the price
// curves to a target base price, preserving their hourly shape.
type SeriesConfig struct {
	MarketCSV string `json:"market_csv"`
	SiteCSV   string `json:"site_csv"`

	TargetElectricityEURMWh *float64 `json:"target_electricity_eur_mwh"`
	TargetGasEURMWh         *float64 `json:"target_gas_eur_mwh"`
}

// Validate checks the input file locations.
func (c SeriesConfig) Validate() error {
	if c.MarketCSV == "" {
		return fmt.Errorf("series.market_csv is required")
	}
	if c.SiteCSV == "" {
		return fmt.Errorf("series.site_csv is required")
	}
	return nil
}

// Load reads a yaml or json configuration file, applies CHPD_ environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CHPD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "chpd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Assets.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Series.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Assets.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
