package sanitize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"phi-redact/internal/logger"
	"phi-redact/internal/metrics"
	"phi-redact/internal/model"
	"phi-redact/internal/redact"
)

type RunOptions struct {
	Files     []string
	OutputDir string
	// Workers bounds concurrent files; 0 starts every file at once.
	Workers  int
	Redactor *redact.Redactor
	Logger   *logger.Logger
	Metrics  *metrics.RunMetrics
	// OnStatus receives each status line in transcript order, from a single
	// goroutine.
	OnStatus func(line string)
}

// Run sanitizes every file concurrently and waits for all of them. A failing
// file is recorded in the transcript and never stops the others. The returned
// error is set only for failures outside a single file, which are also in the
// transcript as "Unexpected error".
func Run(ctx context.Context, opts RunOptions) (model.RunResult, error) {
	r := opts.Redactor
	if r == nil {
		r = redact.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	runID := uuid.NewString()
	log = log.WithRun(runID)
	outputDir := strings.TrimSpace(opts.OutputDir)
	started := time.Now().UTC()

	result := model.RunResult{
		RunID:     runID,
		OutputDir: outputDir,
		StartedAt: started.Format(time.RFC3339),
		Jobs:      newJobs(opts.Files, outputDir),
	}

	status := newCollector(opts.OnStatus)
	runErr := dispatch(ctx, &result, opts, r, log, status)
	if runErr != nil {
		status.emit(unexpectedLine(runErr))
		log.Error("run failed", zap.Error(runErr))
	} else {
		status.emit(completeLine)
	}
	result.Status = status.close()
	result.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	result.Recount()

	log.Info("run finished",
		zap.Int("files", len(result.Jobs)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("lines", result.Lines),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, runErr
}

func newJobs(files []string, outputDir string) []model.FileJob {
	jobs := make([]model.FileJob, 0, len(files))
	for _, f := range files {
		job := model.FileJob{
			InputPath:  f,
			OutputPath: OutputPath(f, outputDir),
		}
		_ = model.TransitionJobStatus(&job, model.StatusPending, "")
		jobs = append(jobs, job)
	}
	return jobs
}

func dispatch(ctx context.Context, result *model.RunResult, opts RunOptions, r *redact.Redactor, log *logger.Logger, status *collector) error {
	if result.OutputDir == "" {
		return errors.New("output directory is required")
	}

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range result.Jobs {
		job := &result.Jobs[i]
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("processing %s panicked: %v", job.DisplayName(), rec)
				}
			}()
			processJob(ctx, job, r, log, opts.Metrics, status)
			return nil
		})
	}
	return g.Wait()
}

func processJob(ctx context.Context, job *model.FileJob, r *redact.Redactor, log *logger.Logger, m *metrics.RunMetrics, status *collector) {
	name := job.DisplayName()
	status.emit(processingLine(name))

	started := time.Now()
	err := ProcessFile(ctx, job, r)
	elapsed := time.Since(started).Seconds()
	m.ObserveFile(job.Status, job.Lines, elapsed)

	if err != nil {
		log.Warn("file failed", logger.Input(job.InputPath), logger.Output(job.OutputPath), zap.Error(err))
		status.emit(errorLine(name, err))
		return
	}

	m.ObserveRedactions(job.Redactions)
	log.Info("file saved",
		logger.Input(job.InputPath),
		logger.Output(job.OutputPath),
		zap.Int("lines", job.Lines),
		zap.Int("redactions", redact.Counts(job.Redactions).Total()),
	)
	status.emit(savedLine(job.OutputPath))
}
