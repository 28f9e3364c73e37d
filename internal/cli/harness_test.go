package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phi-redact/internal/settings"
)

func TestHarnessRunSanitizesFiles(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "config", "phi-redact.json")
	out := filepath.Join(tmp, "out")
	metricsFile := filepath.Join(tmp, "metrics", "phi.prom")

	input := filepath.Join(tmp, "sampleFile.txt")
	fixture := "Patient Name: John Doe\nSocial Security Number: 123-45-6789\nOrder Details:\n"
	if err := os.WriteFile(input, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}

	args := []string{"run", "--config", cfg, "--out", out, "--metrics-file", metricsFile, "--log-level", "error", input, input}
	if err := Run(args); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "sampleFile_sanitized.txt"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Patient Name: [REDACTED]\nSocial Security Number: [REDACTED]\nOrder Details:\n"
	if string(data) != want {
		t.Fatalf("unexpected output:\n%s", data)
	}
	orig, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(orig) != fixture {
		t.Fatal("input must not be modified")
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}
	if !strings.Contains(string(prom), `phi_redact_files_total{status="succeeded"} 1`) {
		t.Fatalf("duplicate inputs should be processed once:\n%s", prom)
	}

	// a second run into the same folder overwrites rather than failing
	if err := Run(args); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}

func TestHarnessRunReportsFailedFiles(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "phi-redact.json")
	out := filepath.Join(tmp, "out")
	good := filepath.Join(tmp, "good.txt")
	if err := os.WriteFile(good, []byte("Email: a@b.io\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Run([]string{"run", "--config", cfg, "--out", out, "--log-level", "error", good, filepath.Join(tmp, "missing.txt")})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected partial failure error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "good_sanitized.txt")); err != nil {
		t.Fatalf("good file should still be written: %v", err)
	}
}

func TestHarnessRunValidatesArguments(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "phi-redact.json")

	if err := Run([]string{"run", "--config", cfg, "--out", tmp}); err == nil {
		t.Fatal("expected error without input files")
	}
	if err := Run([]string{"run", "--config", cfg, filepath.Join(tmp, "a.txt")}); err == nil {
		t.Fatal("expected error without an output folder")
	}
	if err := Run([]string{"run", "--config", cfg, "--out", tmp, "--workers", "-2", "a.txt"}); err == nil {
		t.Fatal("expected error for negative workers")
	}
	if err := Run([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestHarnessRunUsesSettingsOutputDir(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "phi-redact.json")
	out := filepath.Join(tmp, "from-settings")
	if err := Run([]string{"settings", "set", "--config", cfg, "output_dir=" + out, "workers=1", "log_level=error"}); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}

	stored, err := settings.ReadFile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if stored.OutputDir != out || stored.Workers != 1 {
		t.Fatalf("settings not stored: %+v", stored)
	}

	input := filepath.Join(tmp, "visit.txt")
	if err := os.WriteFile(input, []byte("Medical Record Number: MRN-42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Run([]string{"run", "--config", cfg, input}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "visit_sanitized.txt")); err != nil {
		t.Fatalf("expected output in settings output_dir: %v", err)
	}

	if err := Run([]string{"settings", "show", "--config", cfg, "--yaml"}); err != nil {
		t.Fatalf("settings show --yaml failed: %v", err)
	}
	if err := Run([]string{"settings", "show", "--config", cfg, "--yaml", "--json"}); err == nil {
		t.Fatal("expected --json and --yaml together to fail")
	}

	if err := Run([]string{"settings", "set", "--config", cfg, "colour=blue"}); err == nil {
		t.Fatal("expected unknown key to fail")
	}
	if err := Run([]string{"settings", "set", "--config", cfg, "workers"}); err == nil {
		t.Fatal("expected missing '=' to fail")
	}
}

func TestHarnessDoctor(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "config", "phi-redact.json")
	if err := Run([]string{"doctor", "--config", cfg, "--out", filepath.Join(tmp, "out")}); err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
}
