// Package session holds the state behind the interactive screen: the selected
// files, the output folder, the status transcript of the latest run and
// whether a run is in progress. Observers are told which property changed.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"phi-redact/internal/logger"
	"phi-redact/internal/metrics"
	"phi-redact/internal/model"
	"phi-redact/internal/redact"
	"phi-redact/internal/sanitize"
)

type Property string

const (
	SelectedFiles Property = "SelectedFiles"
	OutputFolder  Property = "OutputFolder"
	Status        Property = "Status"
	IsProcessing  Property = "IsProcessing"
	CanProcess    Property = "CanProcess"
)

// Change names the property that changed. Line is set for Status changes
// that append one transcript line; it is empty when the transcript resets.
type Change struct {
	Property Property
	Line     string
}

var ErrCannotProcess = errors.New("cannot process: select at least one file and an output folder, and wait for the current run to finish")

// Runner executes one run. sanitize.Run is used unless Options.Runner is set.
type Runner func(ctx context.Context, opts sanitize.RunOptions) (model.RunResult, error)

type Options struct {
	Runner   Runner
	Workers  int
	Redactor *redact.Redactor
	Logger   *logger.Logger
	Metrics  *metrics.RunMetrics
}

type Session struct {
	opts Options

	mu         sync.Mutex
	files      []string
	outputDir  string
	status     []string
	processing bool

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

func New(opts Options) *Session {
	if opts.Runner == nil {
		opts.Runner = sanitize.Run
	}
	return &Session{
		opts:      opts,
		observers: make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every change and returns a func that removes
// it. fn may be called from the goroutine running Process.
func (s *Session) Subscribe(fn func(Change)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Session) notify(changes ...Change) {
	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

// AddFiles appends the paths that are not selected yet and reports how many
// were added. Paths are compared exactly.
func (s *Session) AddFiles(paths ...string) int {
	s.mu.Lock()
	seen := make(map[string]bool, len(s.files))
	for _, f := range s.files {
		seen[f] = true
	}
	added := 0
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		s.files = append(s.files, p)
		added++
	}
	s.mu.Unlock()

	if added > 0 {
		s.notify(Change{Property: SelectedFiles}, Change{Property: CanProcess})
	}
	return added
}

func (s *Session) RemoveFile(path string) bool {
	s.mu.Lock()
	idx := -1
	for i, f := range s.files {
		if f == path {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.files = append(s.files[:idx], s.files[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		return false
	}
	s.notify(Change{Property: SelectedFiles}, Change{Property: CanProcess})
	return true
}

func (s *Session) ClearFiles() {
	s.mu.Lock()
	had := len(s.files) > 0
	s.files = nil
	s.mu.Unlock()

	if had {
		s.notify(Change{Property: SelectedFiles}, Change{Property: CanProcess})
	}
}

func (s *Session) SetOutputFolder(dir string) {
	dir = strings.TrimSpace(dir)
	s.mu.Lock()
	changed := s.outputDir != dir
	s.outputDir = dir
	s.mu.Unlock()

	if changed {
		s.notify(Change{Property: OutputFolder}, Change{Property: CanProcess})
	}
}

func (s *Session) SelectedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

func (s *Session) OutputFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputDir
}

// Status returns the transcript of the latest run.
func (s *Session) Status() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.status...)
}

func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

func (s *Session) CanProcess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canProcessLocked()
}

func (s *Session) canProcessLocked() bool {
	return !s.processing && len(s.files) > 0 && s.outputDir != ""
}

// Process runs every selected file into the output folder and blocks until
// the run is over. It returns ErrCannotProcess without running when
// CanProcess is false. Selection changes made while it runs apply to the
// next run.
func (s *Session) Process(ctx context.Context) (model.RunResult, error) {
	s.mu.Lock()
	if !s.canProcessLocked() {
		s.mu.Unlock()
		return model.RunResult{}, ErrCannotProcess
	}
	s.processing = true
	s.status = nil
	files := append([]string(nil), s.files...)
	outputDir := s.outputDir
	s.mu.Unlock()

	s.notify(Change{Property: Status}, Change{Property: IsProcessing}, Change{Property: CanProcess})

	result, err := s.opts.Runner(ctx, sanitize.RunOptions{
		Files:     files,
		OutputDir: outputDir,
		Workers:   s.opts.Workers,
		Redactor:  s.opts.Redactor,
		Logger:    s.opts.Logger,
		Metrics:   s.opts.Metrics,
		OnStatus:  s.appendStatus,
	})

	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()
	s.notify(Change{Property: IsProcessing}, Change{Property: CanProcess})
	return result, err
}

func (s *Session) appendStatus(line string) {
	s.mu.Lock()
	s.status = append(s.status, line)
	s.mu.Unlock()
	s.notify(Change{Property: Status, Line: line})
}
