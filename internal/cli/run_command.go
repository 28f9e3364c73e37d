package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"phi-redact/internal/metrics"
	"phi-redact/internal/model"
	"phi-redact/internal/runstore"
	"phi-redact/internal/session"
	"phi-redact/internal/settings"
)

type runSummary struct {
	model.RunResult
	ConfigPath  string `json:"config_path"`
	MetricsFile string `json:"metrics_file,omitempty"`
}

func runRedact(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	config := fs.String("config", settings.DefaultConfigPath, "settings file path")
	out := fs.String("out", "", "output folder (default: settings output_dir)")
	workers := fs.Int("workers", -1, "max files processed at once (0 = all at once, -1 uses settings)")
	metricsFile := fs.String("metrics-file", "", "write Prometheus text metrics to this file after the run")
	logLevel := fs.String("log-level", "", "debug|info|warn|error (default: settings)")
	logFormat := fs.String("log-format", "", "console|json (default: settings)")
	logFile := fs.String("log-file", "", "append JSON logs to this file")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workers < -1 {
		return errors.New("--workers must be >= 0")
	}

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("at least one input file is required")
	}

	configPath := settings.NormalizeConfigPath(*config)
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	outputDir := firstNonEmpty(*out, cfg.OutputDir)
	if outputDir == "" {
		return errors.New("--out is required (or set output_dir via 'settings set')")
	}
	if err := runstore.Mkdir(outputDir); err != nil {
		return err
	}

	log, err := newLogger(cfg, logFlags{level: *logLevel, format: *logFormat, file: *logFile}, false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m := metrics.NewRunMetrics()
	sess := session.New(session.Options{
		Workers: firstNonNegative(*workers, cfg.Workers),
		Logger:  log.WithComponent("run"),
		Metrics: m,
	})
	if added := sess.AddFiles(files...); added < len(files) {
		log.Info("duplicate inputs ignored", zap.Int("given", len(files)), zap.Int("selected", added))
	}
	sess.SetOutputFolder(outputDir)

	if !*jsonOut {
		unsubscribe := sess.Subscribe(func(c session.Change) {
			if c.Property == session.Status && c.Line != "" {
				fmt.Println(c.Line)
			}
		})
		defer unsubscribe()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := sess.Process(ctx)

	metricsPath := firstNonEmpty(*metricsFile, cfg.MetricsFile)
	writeMetricsFile(m, metricsPath, log)

	if *jsonOut {
		if err := printJSON(runSummary{RunResult: result, ConfigPath: configPath, MetricsFile: metricsPath}); err != nil {
			return err
		}
	} else if runErr == nil {
		fmt.Printf("files: %d | saved: %d | failed: %d | lines: %d | redactions: %d\n",
			len(result.Jobs), result.Succeeded, result.Failed, result.Lines, sumCounts(result.Redactions))
	}

	if runErr != nil {
		return runErr
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", result.Failed, len(result.Jobs))
	}
	return nil
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	config := fs.String("config", settings.DefaultConfigPath, "settings file path")
	out := fs.String("out", "", "output folder to check (default: settings output_dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := settings.Doctor(settings.DoctorOptions{
		OutputDir:  strings.TrimSpace(*out),
		ConfigPath: strings.TrimSpace(*config),
	})
	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, c := range res.Checks {
			mark := "OK"
			if !c.OK {
				mark = "FAIL"
			}
			fmt.Printf("[%s] %s: %s\n", mark, c.Name, c.Message)
		}
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	return nil
}
