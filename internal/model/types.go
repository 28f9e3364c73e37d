package model

import "path/filepath"

// FileJob is one input file within a run. It lives only for the run.
type FileJob struct {
	InputPath  string         `json:"input_path"`
	OutputPath string         `json:"output_path"`
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Lines      int            `json:"lines"`
	Redactions map[string]int `json:"redactions,omitempty"`
}

// DisplayName is the input base name including its extension.
func (j FileJob) DisplayName() string {
	return filepath.Base(j.InputPath)
}

// RunResult summarises a finished run.
type RunResult struct {
	RunID      string         `json:"run_id"`
	OutputDir  string         `json:"output_dir"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	Jobs       []FileJob      `json:"jobs"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Lines      int            `json:"lines"`
	Redactions map[string]int `json:"redactions"`
	Status     []string       `json:"status"`
}

// Recount derives the aggregate fields from Jobs.
func (r *RunResult) Recount() {
	succeeded := 0
	failed := 0
	lines := 0
	redactions := make(map[string]int)
	for _, j := range r.Jobs {
		switch j.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		}
		lines += j.Lines
		for label, n := range j.Redactions {
			redactions[label] += n
		}
	}
	r.Succeeded = succeeded
	r.Failed = failed
	r.Lines = lines
	r.Redactions = redactions
}
