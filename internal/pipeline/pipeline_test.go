package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
	"github.com/couchcryptid/fmap-wx-fixer/internal/observability"
	"github.com/couchcryptid/fmap-wx-fixer/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	files       []domain.InputFile
	discoverErr error
	failOn      string
	extracted   []string
}

func (m *mockExtractor) Discover(_ context.Context) ([]domain.InputFile, error) {
	return m.files, m.discoverErr
}

func (m *mockExtractor) Extract(_ context.Context, f domain.InputFile) (*fmap.Record, error) {
	m.extracted = append(m.extracted, f.Name)
	if f.Name == m.failOn {
		return nil, fmap.ErrTruncated
	}
	rec := fmap.NewRecord()
	rec.CloudMap.Set(0, 0, int32(domain.Sunny))
	rec.Visibility.Set(0, 0, 10)
	rec.CloudMap.Set(0, 1, int32(domain.Fair))
	rec.TCU.Set(0, 1, 5)
	return rec, nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, rec *fmap.Record) (domain.FixStats, error) {
	if m.err != nil {
		return domain.FixStats{}, m.err
	}
	return domain.Fix(rec, domain.FixOptions{Thresholds: domain.DefaultThresholds(), MinTCU: domain.Fair}), nil
}

type mockLoader struct {
	loaded map[string]*fmap.Record
	err    error
}

func (m *mockLoader) Load(_ context.Context, name string, rec *fmap.Record) error {
	if m.err != nil {
		return m.err
	}
	if m.loaded == nil {
		m.loaded = make(map[string]*fmap.Record)
	}
	m.loaded[name] = rec
	return nil
}

type mockReporter struct {
	reports []domain.FileReport
	err     error
}

func (m *mockReporter) Report(_ context.Context, r domain.FileReport) error {
	m.reports = append(m.reports, r)
	return m.err
}

func inputs(names ...string) []domain.InputFile {
	files := make([]domain.InputFile, len(names))
	for i, n := range names {
		files[i] = domain.InputFile{Path: "in/" + n, Name: n, Size: fmap.FileSize}
	}
	return files
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap", "b.fmap")}
	ldr := &mockLoader{}
	rep := &mockReporter{}
	metrics := observability.NewMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, rep, slog.Default(), metrics)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunSummary{Discovered: 2, Processed: 2, VisibilityRaised: 4, TCUCleared: 2}, summary)
	require.Len(t, ldr.loaded, 2)
	assert.InDelta(t, 60, ldr.loaded["a.fmap"].Visibility.At(0, 0), 0)
	assert.Equal(t, int32(0), ldr.loaded["b.fmap"].TCU.At(0, 1))

	require.Len(t, rep.reports, 2)
	assert.Equal(t, "a.fmap", rep.reports[0].File)
	assert.Equal(t, 1, rep.reports[0].VisibilityRaised["sunny"])

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.FilesDiscovered), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.FilesProcessed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.VisibilityRaised.WithLabelValues("sunny")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TCUCleared), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_DiscoverError(t *testing.T) {
	ext := &mockExtractor{discoverErr: errors.New("no input fmaps found")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, nil, slog.Default(), observability.NewMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discover")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_AbortsOnFirstFailure(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap", "bad.fmap", "c.fmap"), failOn: "bad.fmap"}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, nil, slog.Default(), metrics)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fmap.ErrTruncated)
	assert.Contains(t, err.Error(), "bad.fmap")

	assert.Equal(t, []string{"a.fmap", "bad.fmap"}, ext.extracted)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, 1, summary.Processed)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FilesFailed), 0)
}

func TestPipeline_Run_TransformError(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad grid")}, ldr, nil, slog.Default(), observability.NewMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform: bad grid")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_LoadError(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap", "b.fmap")}
	ldr := &mockLoader{err: errors.New("disk full")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, nil, slog.Default(), observability.NewMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load: disk full")
	assert.Equal(t, []string{"a.fmap"}, ext.extracted)
}

func TestPipeline_Run_ReportErrorDoesNotAbort(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap", "b.fmap")}
	rep := &mockReporter{err: errors.New("broker down")}
	metrics := observability.NewMetrics()

	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, rep, slog.Default(), metrics)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ReportsFailed), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{files: inputs("a.fmap")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, nil, slog.Default(), observability.NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_ReportUsesClock(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	rep := &mockReporter{}
	p := pipeline.New(&mockExtractor{files: inputs("a.fmap")}, &mockTransformer{}, &mockLoader{}, rep, slog.Default(), observability.NewMetrics())

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.reports, 1)
	assert.Equal(t, fakeClock.Now(), rep.reports[0].ProcessedAt)
	assert.Zero(t, rep.reports[0].Duration)
}

func TestFixTransformer_Transform(t *testing.T) {
	rec := fmap.NewRecord()
	rec.CloudMap.Set(0, 0, int32(domain.Sunny))
	rec.Visibility.Set(0, 0, 10)
	rec.CloudMap.Set(0, 1, int32(domain.Poor))
	rec.TCU.Set(0, 1, 5)

	tfm := pipeline.NewTransformer(domain.FixOptions{Thresholds: domain.DefaultThresholds(), MinTCU: domain.Fair}, slog.Default())
	stats, err := tfm.Transform(context.Background(), rec)
	require.NoError(t, err)

	assert.InDelta(t, 60, rec.Visibility.At(0, 0), 0)
	assert.Equal(t, int32(5), rec.TCU.At(0, 1))
	assert.Equal(t, 1, stats.VisibilityRaised[domain.Sunny])
	assert.Zero(t, stats.TCUCleared)
}

type readinessProbe struct {
	mockLoader
	p   *pipeline.Pipeline
	err error
}

func (r *readinessProbe) Load(ctx context.Context, name string, rec *fmap.Record) error {
	r.err = r.p.CheckReadiness(ctx)
	return r.mockLoader.Load(ctx, name, rec)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	probe := &readinessProbe{}
	p := pipeline.New(&mockExtractor{files: inputs("a.fmap")}, &mockTransformer{}, probe, nil, slog.Default(), observability.NewMetrics())
	probe.p = p

	assert.ErrorIs(t, p.CheckReadiness(context.Background()), pipeline.ErrNotRunning)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NoError(t, probe.err, "ready while the batch runs")
	assert.ErrorIs(t, p.CheckReadiness(context.Background()), pipeline.ErrNotRunning)
}
