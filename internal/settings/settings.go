package settings

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"phi-redact/internal/runstore"
)

const (
	DefaultConfigPath = "config/phi-redact.json"
	DefaultWorkers    = 0
	DefaultLogLevel   = "info"
	DefaultLogFormat  = LogFormatConsole

	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	envPrefix = "PHI_REDACT"
)

const (
	KeyOutputDir   = "output_dir"
	KeyWorkers     = "workers"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyLogFile     = "log_file"
	KeyMetricsFile = "metrics_file"
)

// Settings are the persisted defaults shared by every command. Flags always
// win over them.
type Settings struct {
	OutputDir   string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" mapstructure:"output_dir"`
	Workers     int    `json:"workers" yaml:"workers" mapstructure:"workers"`
	LogLevel    string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	LogFile     string `json:"log_file,omitempty" yaml:"log_file,omitempty" mapstructure:"log_file"`
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
	UpdatedAt   string `json:"updated_at,omitempty" yaml:"updated_at,omitempty" mapstructure:"updated_at"`
}

type SaveResult struct {
	ConfigPath string   `json:"config_path"`
	Settings   Settings `json:"settings"`
}

func Defaults() Settings {
	return Settings{
		Workers:   DefaultWorkers,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{KeyOutputDir, KeyWorkers, KeyLogLevel, KeyLogFormat, KeyLogFile, KeyMetricsFile}
}

func Normalize(raw Settings) Settings {
	norm := raw
	norm.OutputDir = strings.TrimSpace(norm.OutputDir)
	if norm.Workers < 0 {
		norm.Workers = DefaultWorkers
	}
	norm.LogLevel = normalizeLogLevel(norm.LogLevel)
	norm.LogFormat = normalizeLogFormat(norm.LogFormat)
	norm.LogFile = strings.TrimSpace(norm.LogFile)
	norm.MetricsFile = strings.TrimSpace(norm.MetricsFile)
	return norm
}

func normalizeLogLevel(raw string) string {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "debug", "info", "warn", "error":
		return v
	case "warning":
		return "warn"
	default:
		return DefaultLogLevel
	}
}

func normalizeLogFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case LogFormatJSON:
		return LogFormatJSON
	default:
		return LogFormatConsole
	}
}

func NormalizeConfigPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultConfigPath
	}
	return p
}

// Load reads configPath and applies PHI_REDACT_* environment overrides. A
// missing file yields the defaults.
func Load(configPath string) (Settings, error) {
	path := NormalizeConfigPath(configPath)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault(KeyOutputDir, def.OutputDir)
	v.SetDefault(KeyWorkers, def.Workers)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)
	v.SetDefault(KeyLogFile, def.LogFile)
	v.SetDefault(KeyMetricsFile, def.MetricsFile)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("stat settings %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	return Normalize(s), nil
}

// ReadFile returns only what is stored in configPath, without environment
// overrides, so that saving never persists values that came from the
// environment.
func ReadFile(configPath string) (Settings, error) {
	path := NormalizeConfigPath(configPath)
	s := Defaults()
	if err := runstore.ReadJSON(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, err
	}
	return Normalize(s), nil
}

func Save(configPath string, s Settings) (SaveResult, error) {
	path := NormalizeConfigPath(configPath)
	norm := Normalize(s)
	norm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := runstore.WriteJSON(path, norm); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{ConfigPath: path, Settings: norm}, nil
}

// Apply sets one key from its string form.
func Apply(s *Settings, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case KeyOutputDir:
		s.OutputDir = value
	case KeyWorkers:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers must be an integer: %q", value)
		}
		if n < 0 {
			return fmt.Errorf("workers must be >= 0")
		}
		s.Workers = n
	case KeyLogLevel:
		switch v := strings.ToLower(value); v {
		case "debug", "info", "warn", "warning", "error":
			s.LogLevel = normalizeLogLevel(v)
		default:
			return fmt.Errorf("unknown log level %q (use debug, info, warn, error)", value)
		}
	case KeyLogFormat:
		v := strings.ToLower(value)
		if v != LogFormatConsole && v != LogFormatJSON {
			return fmt.Errorf("unknown log format %q (use console or json)", value)
		}
		s.LogFormat = v
	case KeyLogFile:
		s.LogFile = value
	case KeyMetricsFile:
		s.MetricsFile = value
	default:
		known := Keys()
		sort.Strings(known)
		return fmt.Errorf("unknown settings key %q (known: %s)", key, strings.Join(known, ", "))
	}
	return nil
}
