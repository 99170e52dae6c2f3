package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkucera/chpdispatch/core/horizon"
)

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
}

// LoadMarketCSV reads a forward price curve with columns
// timestamp, electricity_eur_mwh, gas_eur_mwh. The first row is a header.
func LoadMarketCSV(path string) ([]horizon.MarketPoint, error) {
	var points []horizon.MarketPoint
	err := readRows(path, 3, func(line int, fields []string) error {
		ts, err := parseTime(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		ee, err := parseFloat(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: electricity price: %w", line, err)
		}
		gas, err := parseFloat(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: gas price: %w", line, err)
		}
		points = append(points, horizon.MarketPoint{Timestamp: ts, ElectricityEURMWh: ee, GasEURMWh: gas})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("market csv %s: %w", path, err)
	}
	return points, nil
}

// LoadSiteCSV reads the site profile with columns
// timestamp, heat_demand_mw and an optional solar_capacity_factor.
func LoadSiteCSV(path string) ([]horizon.SitePoint, error) {
	var points []horizon.SitePoint
	err := readRows(path, 2, func(line int, fields []string) error {
		ts, err := parseTime(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		demand, err := parseFloat(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: heat demand: %w", line, err)
		}
		p := horizon.SitePoint{Timestamp: ts, HeatDemandMW: demand}
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			cf, err := parseFloat(fields[2])
			if err != nil {
				return fmt.Errorf("line %d: solar capacity factor: %w", line, err)
			}
			p.SolarCapacityFactor = cf
		}
		points = append(points, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("site csv %s: %w", path, err)
	}
	return points, nil
}

func readRows(path string, minFields int, row func(line int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	line := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		line++
		if line == 1 {
			// header
			continue
		}
		if len(fields) < minFields {
			return fmt.Errorf("line %d: expected at least %d fields, got %d", line, minFields, len(fields))
		}
		if err := row(line, fields); err != nil {
			return err
		}
	}
	if line < 2 {
		return fmt.Errorf("no data rows")
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
