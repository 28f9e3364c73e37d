package sanitize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phi-redact/internal/metrics"
	"phi-redact/internal/model"
)

func writeInputs(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestRunSeedFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := writeInputs(t, in, map[string]string{"sampleFile.txt": seedInput})

	result, err := Run(context.Background(), RunOptions{Files: files, OutputDir: out})
	require.NoError(t, err)

	outputPath := filepath.Join(out, "sampleFile_sanitized.txt")
	got, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, seedOutput, string(got))

	assert.Equal(t, []string{
		"Processing sampleFile.txt...",
		"Saved: " + outputPath,
		"Processing complete.",
	}, result.Status)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 10, result.Lines)
	assert.Equal(t, 1, result.Redactions["Email"])
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, model.StatusSucceeded, result.Jobs[0].Status)
}

func TestRunIsolatesFailingFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := writeInputs(t, in, map[string]string{
		"a.txt": "Patient Name: A\n",
		"b.txt": "Email: b@example.org\n",
	})
	missing := filepath.Join(in, "missing.txt")
	files = append(files, missing)

	var (
		mu       sync.Mutex
		observed []string
	)
	m := metrics.NewRunMetrics()
	result, err := Run(context.Background(), RunOptions{
		Files:     files,
		OutputDir: out,
		Metrics:   m,
		OnStatus: func(line string) {
			mu.Lock()
			observed = append(observed, line)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.Status, observed)
	require.Len(t, result.Status, 7)
	assert.Equal(t, "Processing complete.", result.Status[len(result.Status)-1])

	errorLines := 0
	for _, line := range result.Status {
		if strings.HasPrefix(line, "Error processing missing.txt: ") {
			errorLines++
		}
	}
	assert.Equal(t, 1, errorLines)
	assert.Contains(t, result.Status, "Saved: "+filepath.Join(out, "a_sanitized.txt"))
	assert.Contains(t, result.Status, "Saved: "+filepath.Join(out, "b_sanitized.txt"))

	for _, job := range result.Jobs {
		if job.InputPath == missing {
			assert.Equal(t, model.StatusFailed, job.Status)
			assert.NotEmpty(t, job.Message)
		}
	}
	_, statErr := os.Stat(filepath.Join(out, "missing_sanitized.txt"))
	assert.True(t, os.IsNotExist(statErr))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRunProcessingLinePrecedesOutcome(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := writeInputs(t, in, map[string]string{
		"one.txt":   "x\n",
		"two.txt":   "y\n",
		"three.txt": "z\n",
	})

	result, err := Run(context.Background(), RunOptions{Files: files, OutputDir: out, Workers: 1})
	require.NoError(t, err)
	require.Len(t, result.Status, 7)

	// with one worker each file's lines are adjacent
	for i := 0; i < 6; i += 2 {
		require.True(t, strings.HasPrefix(result.Status[i], "Processing "), result.Status[i])
		name := strings.TrimSuffix(strings.TrimPrefix(result.Status[i], "Processing "), "...")
		stem := strings.TrimSuffix(name, ".txt")
		assert.Equal(t, "Saved: "+filepath.Join(out, stem+"_sanitized.txt"), result.Status[i+1])
	}
	assert.Equal(t, "Processing complete.", result.Status[6])
}

func TestRunMissingOutputDirFailsEachFile(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "missing")
	files := writeInputs(t, in, map[string]string{"a.txt": "Patient Name: A\n"})

	result, err := Run(context.Background(), RunOptions{Files: files, OutputDir: out})
	require.NoError(t, err)
	require.Len(t, result.Status, 3)
	assert.Equal(t, "Processing a.txt...", result.Status[0])
	assert.True(t, strings.HasPrefix(result.Status[1], "Error processing a.txt: "), result.Status[1])
	assert.Equal(t, "Processing complete.", result.Status[2])
	assert.Equal(t, 1, result.Failed)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunIgnoresLeftoverDirectories(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(out, ".phi-redact.lock"), 0o755))
	files := writeInputs(t, in, map[string]string{"a.txt": "Patient Name: A\n"})

	result, err := Run(context.Background(), RunOptions{Files: files, OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Processing a.txt...",
		"Saved: " + filepath.Join(out, "a_sanitized.txt"),
		"Processing complete.",
	}, result.Status)
}

func TestRunBlankOutputDir(t *testing.T) {
	in := t.TempDir()
	files := writeInputs(t, in, map[string]string{"a.txt": "a\n"})

	result, err := Run(context.Background(), RunOptions{Files: files, OutputDir: "  "})
	require.Error(t, err)
	assert.Equal(t, []string{"Unexpected error: output directory is required"}, result.Status)
}

func TestRunCancelledContext(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := writeInputs(t, in, map[string]string{"a.txt": "a\nb\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := Run(ctx, RunOptions{Files: files, OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "Error processing a.txt: context canceled", result.Status[1])

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
