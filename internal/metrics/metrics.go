package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics counts files, lines and redactions across runs.
type RunMetrics struct {
	reg          *prometheus.Registry
	filesTotal   *prometheus.CounterVec
	linesTotal   prometheus.Counter
	redactions   *prometheus.CounterVec
	fileDuration prometheus.Histogram
}

// NewRunMetrics registers the collectors on a private registry so runs in
// the same process (tests, repeated UI runs) never collide.
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		reg: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phi_redact",
			Name:      "files_total",
			Help:      "Files processed, by outcome",
		}, []string{"status"}),
		linesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phi_redact",
			Name:      "lines_total",
			Help:      "Lines read from input files",
		}),
		redactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phi_redact",
			Name:      "redactions_total",
			Help:      "Values replaced, by field label",
		}, []string{"label"}),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "phi_redact",
			Name:      "file_duration_seconds",
			Help:      "Time spent sanitizing one file",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.reg.MustRegister(m.filesTotal, m.linesTotal, m.redactions, m.fileDuration)
	return m
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *RunMetrics) ObserveFile(status string, lines int, seconds float64) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(status).Inc()
	if lines > 0 {
		m.linesTotal.Add(float64(lines))
	}
	m.fileDuration.Observe(seconds)
}

func (m *RunMetrics) ObserveRedactions(counts map[string]int) {
	if m == nil {
		return
	}
	for label, n := range counts {
		if n <= 0 {
			continue
		}
		m.redactions.WithLabelValues(metricLabel(label)).Add(float64(n))
	}
}

// WriteTextfile dumps the registry in text exposition format, for the
// node_exporter textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory for %s: %w", path, err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

func metricLabel(label string) string {
	v := strings.ToLower(strings.TrimSpace(label))
	if v == "" {
		return "unknown"
	}
	return strings.ReplaceAll(v, " ", "_")
}
