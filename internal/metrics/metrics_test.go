package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRunMetricsObserve(t *testing.T) {
	m := NewRunMetrics()
	m.ObserveFile("succeeded", 9, 0.01)
	m.ObserveFile("failed", 0, 0.001)
	m.ObserveRedactions(map[string]int{"Email": 2, "Patient Name": 1, "Address": 0})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	if got := counterSum(byName["phi_redact_files_total"]); got != 2 {
		t.Fatalf("expected 2 files, got %v", got)
	}
	if got := counterSum(byName["phi_redact_lines_total"]); got != 9 {
		t.Fatalf("expected 9 lines, got %v", got)
	}
	red := byName["phi_redact_redactions_total"]
	if got := counterSum(red); got != 3 {
		t.Fatalf("expected 3 redactions, got %v", got)
	}
	labels := map[string]bool{}
	for _, metric := range red.GetMetric() {
		for _, lp := range metric.GetLabel() {
			labels[lp.GetValue()] = true
		}
	}
	if !labels["patient_name"] || !labels["email"] || labels["address"] {
		t.Fatalf("unexpected redaction labels: %#v", labels)
	}
}

func TestRunMetricsNilSafe(t *testing.T) {
	var m *RunMetrics
	m.ObserveFile("succeeded", 1, 0.1)
	m.ObserveRedactions(map[string]int{"Email": 1})
	if err := m.WriteTextfile("ignored.prom"); err != nil {
		t.Fatalf("nil metrics should not write: %v", err)
	}
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestRunMetricsWriteTextfile(t *testing.T) {
	m := NewRunMetrics()
	m.ObserveFile("succeeded", 3, 0.2)
	path := filepath.Join(t.TempDir(), "textfile", "phi_redact.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `phi_redact_files_total{status="succeeded"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", data)
	}
}

func counterSum(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	total := 0.0
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}
