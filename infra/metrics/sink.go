package metrics

import "github.com/pkucera/chpdispatch/core/report"

// Config selects and configures the observability sinks.
type Config struct {
	PrometheusEnabled bool `json:"prometheus_enabled"`
	PrometheusPort    int  `json:"prometheus_port"`

	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults fills the exposition port.
func (c *Config) SetDefaults() {
	if c.PrometheusEnabled && c.PrometheusPort == 0 {
		c.PrometheusPort = 2112
	}
}

// RunSink records completed optimization runs for observability purposes.
type RunSink interface {
	RecordRun(s report.Summary) error
}

// NopSink implements RunSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(report.Summary) error { return nil }

// MultiSink fans a run record out to multiple sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(s report.Summary) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordRun(s); err != nil {
			return err
		}
	}
	return nil
}
