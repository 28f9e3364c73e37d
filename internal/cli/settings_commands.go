package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"phi-redact/internal/settings"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	config := fs.String("config", settings.DefaultConfigPath, "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	yamlOut := fs.Bool("yaml", false, "print YAML output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jsonOut && *yamlOut {
		return errors.New("--json and --yaml are mutually exclusive")
	}

	configPath := settings.NormalizeConfigPath(*config)
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(settingsView{ConfigPath: configPath, Settings: cfg})
	}
	if *yamlOut {
		return printYAML(settingsView{ConfigPath: configPath, Settings: cfg})
	}

	fmt.Printf("config: %s\n", configPath)
	printSettings(cfg)
	return nil
}

// runSettingsSet takes key=value pairs, e.g. "settings set workers=4
// output_dir=sanitized".
func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	config := fs.String("config", settings.DefaultConfigPath, "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	pairs := fs.Args()
	if len(pairs) == 0 {
		return errors.New("at least one key=value pair is required (keys: " + strings.Join(settings.Keys(), ", ") + ")")
	}

	configPath := settings.NormalizeConfigPath(*config)
	cfg, err := settings.ReadFile(configPath)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", pair)
		}
		if err := settings.Apply(&cfg, key, value); err != nil {
			return err
		}
	}

	res, err := settings.Save(configPath, cfg)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}
	fmt.Printf("updated settings in %s\n", res.ConfigPath)
	printSettings(res.Settings)
	return nil
}

type settingsView struct {
	ConfigPath string            `json:"config_path" yaml:"config_path"`
	Settings   settings.Settings `json:"settings" yaml:"settings"`
}

func printSettings(cfg settings.Settings) {
	fmt.Printf("%s: %s\n", settings.KeyOutputDir, defaultIfEmpty(cfg.OutputDir, "(none)"))
	fmt.Printf("%s: %s\n", settings.KeyWorkers, formatWorkers(cfg.Workers))
	fmt.Printf("%s: %s\n", settings.KeyLogLevel, cfg.LogLevel)
	fmt.Printf("%s: %s\n", settings.KeyLogFormat, cfg.LogFormat)
	fmt.Printf("%s: %s\n", settings.KeyLogFile, defaultIfEmpty(cfg.LogFile, "(none)"))
	fmt.Printf("%s: %s\n", settings.KeyMetricsFile, defaultIfEmpty(cfg.MetricsFile, "(none)"))
}

func formatWorkers(v int) string {
	if v <= 0 {
		return "0 (all files at once)"
	}
	return strconv.Itoa(v)
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show [--json|--yaml]")
	fmt.Println("  settings set key=value [key=value ...]")
	fmt.Println()
	fmt.Println("keys: " + strings.Join(settings.Keys(), ", "))
}
