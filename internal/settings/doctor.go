package settings

import (
	"path/filepath"
	"strings"

	"phi-redact/internal/redact"
	"phi-redact/internal/runstore"
)

type DoctorOptions struct {
	OutputDir  string
	ConfigPath string
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func Doctor(opts DoctorOptions) DoctorResult {
	configPath := NormalizeConfigPath(opts.ConfigPath)
	checks := make([]DoctorCheck, 0, 4)

	cfg, err := Load(configPath)
	if err != nil {
		checks = append(checks, DoctorCheck{Name: "config:load", OK: false, Message: err.Error()})
	} else {
		checks = append(checks, DoctorCheck{Name: "config:load", OK: true, Message: "loaded " + configPath})
	}

	checks = append(checks, redactorCheck())

	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir == "" {
		checks = append(checks, DoctorCheck{Name: "directory:output", OK: true, Message: "not set; choose one per run"})
	} else {
		checks = append(checks, writableCheck("directory:output", outputDir))
	}
	checks = append(checks, writableCheck("directory:config", filepath.Dir(configPath)))

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func writableCheck(name, dir string) DoctorCheck {
	if err := runstore.EnsureWritableDir(dir); err != nil {
		return DoctorCheck{Name: name, OK: false, Message: err.Error()}
	}
	return DoctorCheck{Name: name, OK: true, Message: dir + " writable"}
}

// redactorCheck runs one labelled sample through the pattern set.
func redactorCheck() DoctorCheck {
	const sample = "Email: doctor@example.com"
	if got := redact.Redact(sample); got != "Email: "+redact.Marker {
		return DoctorCheck{Name: "redactor:self-test", OK: false, Message: "unexpected result " + got}
	}
	return DoctorCheck{Name: "redactor:self-test", OK: true, Message: "patterns compiled"}
}
