package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"phi-redact/internal/logger"
	"phi-redact/internal/metrics"
	"phi-redact/internal/settings"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func stdinIsTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

type logFlags struct {
	level  string
	format string
	file   string
}

// newLogger builds the command logger. Flags win over settings. quietConsole
// keeps the console sink off, e.g. while the terminal UI owns the screen.
func newLogger(cfg settings.Settings, flags logFlags, quietConsole bool) (*logger.Logger, error) {
	lc := logger.Config{
		Level:  firstNonEmpty(flags.level, cfg.LogLevel),
		Format: firstNonEmpty(flags.format, cfg.LogFormat),
		File:   firstNonEmpty(flags.file, cfg.LogFile),
	}
	if quietConsole {
		lc.Output = io.Discard
	}
	return logger.New(lc)
}

// writeMetricsFile is a no-op when path is empty. Failures are logged only.
func writeMetricsFile(m *metrics.RunMetrics, path string, log *logger.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Warn("write metrics file", zap.String("path", path), zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstNonNegative(values ...int) int {
	for _, v := range values {
		if v >= 0 {
			return v
		}
	}
	return 0
}
