package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
	"github.com/couchcryptid/fmap-wx-fixer/internal/observability"
)

// Extractor finds input files and decodes them one at a time.
type Extractor interface {
	Discover(ctx context.Context) ([]domain.InputFile, error)
	Extract(ctx context.Context, file domain.InputFile) (*fmap.Record, error)
}

// Transformer fixes a decoded record in place.
type Transformer interface {
	Transform(ctx context.Context, rec *fmap.Record) (domain.FixStats, error)
}

// Loader writes a fixed record under the given file name.
type Loader interface {
	Load(ctx context.Context, name string, rec *fmap.Record) error
}

// Reporter receives a report for every file written.
type Reporter interface {
	Report(ctx context.Context, report domain.FileReport) error
}

// ErrNotRunning is returned by CheckReadiness outside of Run.
var ErrNotRunning = errors.New("batch not running")

// Pipeline runs the discover-extract-transform-load batch.
type Pipeline struct {
	running atomic.Bool

	extractor   Extractor
	transformer Transformer
	loader      Loader
	reporter    Reporter
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability. reporter
// may be nil.
func New(e Extractor, t Transformer, l Loader, r Reporter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		reporter:    r,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run processes every discovered file in order, each one completely before
// the next. The first failure stops the batch and is returned; files after
// it are not touched. Cancelling ctx stops the batch between files.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	var summary domain.RunSummary

	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	files, err := p.extractor.Discover(ctx)
	if err != nil {
		return summary, fmt.Errorf("discover: %w", err)
	}
	summary.Discovered = len(files)
	p.metrics.FilesDiscovered.Add(float64(len(files)))
	p.logger.Info("pipeline started", "files", len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline interrupted", "processed", summary.Processed, "remaining", len(files)-i)
			return summary, fmt.Errorf("run interrupted: %w", err)
		}

		stats, err := p.processFile(ctx, file)
		if err != nil {
			p.metrics.FilesFailed.Inc()
			p.logger.Error("file failed, aborting batch",
				"file", file.Name,
				"error", err,
				"remaining", len(files)-i-1,
			)
			return summary, fmt.Errorf("%s: %w", file.Name, err)
		}
		summary.Add(stats)
	}

	p.logger.Info("pipeline finished",
		"processed", summary.Processed,
		"visibility_raised", summary.VisibilityRaised,
		"tcu_cleared", summary.TCUCleared,
	)
	return summary, nil
}

// CheckReadiness reports whether a batch is in progress. It implements
// http.ReadinessChecker.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return ErrNotRunning
	}
	return nil
}

// processFile runs one extract-transform-load cycle.
func (p *Pipeline) processFile(ctx context.Context, file domain.InputFile) (domain.FixStats, error) {
	start := domain.Now()

	rec, err := p.extractor.Extract(ctx, file)
	if err != nil {
		return domain.FixStats{}, fmt.Errorf("extract: %w", err)
	}

	stats, err := p.transformer.Transform(ctx, rec)
	if err != nil {
		return domain.FixStats{}, fmt.Errorf("transform: %w", err)
	}

	if err := p.loader.Load(ctx, file.Name, rec); err != nil {
		return domain.FixStats{}, fmt.Errorf("load: %w", err)
	}

	took := domain.Since(start)
	p.metrics.FilesProcessed.Inc()
	p.metrics.FileProcessingDuration.Observe(took.Seconds())
	for c, n := range stats.VisibilityRaised {
		p.metrics.VisibilityRaised.WithLabelValues(c.String()).Add(float64(n))
	}
	p.metrics.TCUCleared.Add(float64(stats.TCUCleared))

	p.logger.Debug("fmap fixed",
		"file", file.Name,
		"visibility_raised", stats.TotalRaised(),
		"tcu_cleared", stats.TCUCleared,
		"duration", took,
	)

	p.report(ctx, domain.NewFileReport(file.Name, stats, took))
	return stats, nil
}

// report publishes a file report. Failures are logged and counted but never
// stop the batch, since the fixed file is already on disk.
func (p *Pipeline) report(ctx context.Context, r domain.FileReport) {
	if p.reporter == nil {
		return
	}
	if err := p.reporter.Report(ctx, r); err != nil {
		p.metrics.ReportsFailed.Inc()
		p.logger.Warn("publish report failed", "file", r.File, "error", err)
	}
}
