// Package export runs baseline comparisons against files held in a blob
// store and writes the resulting charts to disk.
package export

import (
	"context"
	"io"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/render"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/report"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/storage"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/pipeline"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

// Re-exported types.
type (
	Store        = ports.BlobStore
	Sink         = ports.ImageSink
	Result       = pipeline.ExportResult
	Item         = domain.ExportItem
	PlotKind     = pipeline.PlotKind
	S3Config     = storage.S3Config
	RenderConfig = render.Config
)

// Plot kinds.
const (
	PlotOverlay = pipeline.PlotOverlay
	PlotMetrics = pipeline.PlotMetrics
)

// Report formats.
const (
	ReportParquet = report.FormatParquet
	ReportJSON    = report.FormatJSON
	ReportNone    = report.FormatNone
)

// ParsePlotKind maps "overlay" / "metrics" to a PlotKind.
func ParsePlotKind(s string) (PlotKind, error) {
	return pipeline.ParsePlotKind(s)
}

// DefaultRenderConfig returns the default chart configuration.
func DefaultRenderConfig() RenderConfig {
	return render.DefaultConfig()
}

// S3ConfigFromEnv reads bucket settings from the environment.
func S3ConfigFromEnv() S3Config {
	return storage.S3ConfigFromEnv()
}

// OpenS3 connects to the bucket described by cfg.
func OpenS3(ctx context.Context, cfg S3Config, lg ports.Logger) (Store, error) {
	return storage.OpenS3Store(ctx, cfg, lg)
}

// OpenDir serves spectrum files from a local directory.
func OpenDir(dir string, lg ports.Logger) (Store, error) {
	return storage.NewDirStore(dir, lg)
}

// Exporter compares spectra from a store and exports charts.
type Exporter struct {
	pipeline *pipeline.Pipeline
	format   string
}

// Option defines a functional option for configuring the Exporter.
type Option func(*config)

type config struct {
	Similarity *spectra.SpectralSimilarity
	Render     render.Config
	Pipeline   pipeline.Config
	Sink       ports.ImageSink
	Logger     ports.Logger
}

// WithSimilarity uses a preconfigured loader/comparator/scorer set.
func WithSimilarity(ss *spectra.SpectralSimilarity) Option {
	return func(cfg *config) {
		cfg.Similarity = ss
	}
}

// WithRenderConfig sets chart size, format and axis ranges.
func WithRenderConfig(rc RenderConfig) Option {
	return func(cfg *config) {
		cfg.Render = rc
		cfg.Pipeline.ImageExtension = rc.Format
	}
}

// WithMetricsCharts also exports the error-metric bar chart per candidate.
func WithMetricsCharts(enable bool) Option {
	return func(cfg *config) {
		cfg.Pipeline.MetricsCharts = enable
	}
}

// WithReport writes a batch summary in the given format.
func WithReport(format string) Option {
	return func(cfg *config) {
		cfg.Pipeline.ReportFormat = format
	}
}

// WithSink replaces the file-system image sink.
func WithSink(s Sink) Option {
	return func(cfg *config) {
		cfg.Sink = s
	}
}

// WithLogger sets the logger.
func WithLogger(lg ports.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = lg
	}
}

// New creates an Exporter reading from store.
func New(store Store, opts ...Option) (*Exporter, error) {
	cfg := &config{
		Render:   render.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Sink:     storage.NewFileSink(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		if cfg.Similarity != nil {
			cfg.Logger = cfg.Similarity.Logger()
		} else {
			var err error
			cfg.Logger, err = logger.NewStdLogger()
			if err != nil {
				return nil, err
			}
		}
	}
	if cfg.Similarity == nil {
		var err error
		cfg.Similarity, err = spectra.New(spectra.WithPortLogger(cfg.Logger))
		if err != nil {
			return nil, err
		}
	}

	renderer, err := render.NewRenderer(cfg.Render, cfg.Logger)
	if err != nil {
		return nil, err
	}

	factory := normalizer.NewNormalizerFactory()
	p, err := pipeline.New(pipeline.Deps{
		Store:      store,
		Loader:     cfg.Similarity.Loader(),
		Comparator: cfg.Similarity.Comparator(),
		Scorer:     cfg.Similarity.Scorer(),
		Renderer:   renderer,
		Sink:       cfg.Sink,
		Paths:      factory.CreateNormalizer(normalizer.PathNormalizerType),
		Stems:      factory.CreateNormalizer(normalizer.StemNormalizerType),
		Logger:     cfg.Logger,
	}, cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	return &Exporter{pipeline: p, format: renderer.Format()}, nil
}

// ImageFormat returns the encoding used for charts, e.g. "png" or "svg".
func (e *Exporter) ImageFormat() string {
	return e.format
}

// List returns the spectrum files in the store.
func (e *Exporter) List(ctx context.Context) ([]string, error) {
	return e.pipeline.List(ctx)
}

// Compare loads, compares and scores one pair of files.
func (e *Exporter) Compare(ctx context.Context, baseline, candidate string) (*domain.Comparison, error) {
	return e.pipeline.Compare(ctx, baseline, candidate)
}

// Plot renders one chart for a pair into w.
func (e *Exporter) Plot(ctx context.Context, baseline, candidate string, kind PlotKind, w io.Writer) (*domain.Comparison, error) {
	return e.pipeline.Plot(ctx, baseline, candidate, kind, w)
}

// Export writes charts for every candidate into dir.
func (e *Exporter) Export(ctx context.Context, dir, baseline string, candidates []string) (*Result, error) {
	return e.pipeline.Export(ctx, dir, baseline, candidates)
}
