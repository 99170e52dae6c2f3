package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkucera/chpdispatch/core/optimizer"
	"github.com/pkucera/chpdispatch/core/report"
)

type recordingSink struct {
	calls int
	err   error
}

func (r *recordingSink) RecordRun(report.Summary) error {
	r.calls++
	return r.err
}

func testSummary() report.Summary {
	return report.Summary{
		RunID:           "test",
		SolverStatus:    optimizer.StatusOptimal,
		ObjectiveEUR:    1234.5,
		SolveDuration:   2 * time.Second,
		TotalMarginEUR:  1234.5,
		CoveragePercent: 99.5,
	}
}

func TestMultiSinkFanout(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordRun(testSummary()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected one call per sink, got %d and %d", a.calls, b.calls)
	}
}

func TestMultiSinkFirstError(t *testing.T) {
	want := errors.New("sink down")
	m := NewMultiSink(&recordingSink{err: want}, &recordingSink{})
	if err := m.RecordRun(testSummary()); !errors.Is(err, want) {
		t.Fatalf("expected first error, got %v", err)
	}
}

func TestNopSink(t *testing.T) {
	if err := (NopSink{}).RecordRun(testSummary()); err != nil {
		t.Fatalf("nop sink must not fail: %v", err)
	}
}

func TestPromSinkRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordRun(testSummary()); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Registering twice must reuse the existing collectors.
	if _, err := NewPromSink(reg); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestConfigSetDefaults(t *testing.T) {
	c := Config{PrometheusEnabled: true}
	c.SetDefaults()
	if c.PrometheusPort != 2112 {
		t.Fatalf("default port: %d", c.PrometheusPort)
	}
}
