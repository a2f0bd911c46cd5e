package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/report"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/pool"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// PlotKind selects which chart Plot renders.
type PlotKind int

const (
	// PlotOverlay draws baseline and candidate spectra on shared axes.
	PlotOverlay PlotKind = iota
	// PlotMetrics draws the four error metrics as bars.
	PlotMetrics
)

// ParsePlotKind maps "overlay" / "metrics" to a PlotKind.
func ParsePlotKind(s string) (PlotKind, error) {
	switch s {
	case "overlay", "":
		return PlotOverlay, nil
	case "metrics":
		return PlotMetrics, nil
	default:
		return 0, fmt.Errorf("unknown plot kind %q", s)
	}
}

// Config holds configuration for the comparison pipeline.
type Config struct {
	// ImageExtension is appended to exported chart names, without the dot.
	ImageExtension string
	// MetricsCharts also exports the error-metric bar chart per candidate.
	MetricsCharts bool
	// ReportFormat writes a batch summary next to the images; see package report.
	ReportFormat string
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ImageExtension: "png",
		ReportFormat:   report.FormatNone,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.ImageExtension == "" {
		return errors.New("image extension is required")
	}
	return report.Validate(c.ReportFormat)
}

// Deps are the collaborators a Pipeline is assembled from.
type Deps struct {
	Store      ports.BlobStore
	Loader     ports.SpectrumLoader
	Comparator ports.Comparator
	Scorer     ports.Scorer
	Renderer   ports.Renderer
	Sink       ports.ImageSink
	Paths      ports.Normalizer
	Stems      ports.Normalizer
	Logger     ports.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Store == nil:
		return errors.New("store is required")
	case d.Loader == nil:
		return errors.New("loader is required")
	case d.Comparator == nil:
		return errors.New("comparator is required")
	case d.Scorer == nil:
		return errors.New("scorer is required")
	case d.Renderer == nil:
		return errors.New("renderer is required")
	case d.Sink == nil:
		return errors.New("sink is required")
	case d.Paths == nil || d.Stems == nil:
		return errors.New("path and stem normalizers are required")
	case d.Logger == nil:
		return errors.New("logger is required")
	}
	return nil
}

// Pipeline runs Load -> Compare -> Score -> Render for baseline/candidate pairs.
type Pipeline struct {
	deps    Deps
	config  Config
	buffers *pool.BufferPool
}

// New assembles a pipeline.
func New(deps Deps, config Config) (*Pipeline, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		deps:    deps,
		config:  config,
		buffers: pool.NewBufferPool(256 * 1024),
	}, nil
}

// List returns the spectrum files available in the store.
func (p *Pipeline) List(ctx context.Context) ([]string, error) {
	return p.deps.Store.List(ctx)
}

// Load fetches and parses one spectrum file.
func (p *Pipeline) Load(ctx context.Context, name string) (domain.Spectrum, error) {
	data, err := p.deps.Store.Fetch(ctx, name)
	if err != nil {
		return domain.Spectrum{}, err
	}
	return p.deps.Loader.Load(name, bytes.NewReader(data))
}

// CompareSpectra compares two loaded spectra and scores the result.
func (p *Pipeline) CompareSpectra(ctx context.Context, baseline, candidate domain.Spectrum) (*domain.Comparison, error) {
	metrics, err := p.deps.Comparator.Compare(ctx, baseline, candidate)
	if err != nil {
		return nil, fmt.Errorf("compare %q with %q: %w", candidate.Name, baseline.Name, err)
	}
	verdict, err := p.deps.Scorer.Score(metrics)
	if err != nil {
		return nil, fmt.Errorf("score %q against %q: %w", candidate.Name, baseline.Name, err)
	}
	return &domain.Comparison{
		Baseline:  baseline.Name,
		Candidate: candidate.Name,
		Metrics:   metrics,
		Verdict:   verdict,
	}, nil
}

// Compare loads both files from the store, compares and scores them.
func (p *Pipeline) Compare(ctx context.Context, baselineName, candidateName string) (*domain.Comparison, error) {
	baseline, candidate, err := p.loadPair(ctx, baselineName, candidateName)
	if err != nil {
		return nil, err
	}
	cmp, err := p.CompareSpectra(ctx, baseline, candidate)
	if err != nil {
		return nil, err
	}
	p.deps.Logger.Info("Compared spectra",
		"baseline", baselineName,
		"candidate", candidateName,
		"score", cmp.Verdict.FiniteScore(),
		"status", cmp.Verdict.Status.Color(),
	)
	return cmp, nil
}

// Plot renders one chart for the pair into w. The comparison is returned for
// both kinds so callers can show the verdict beside the chart.
func (p *Pipeline) Plot(ctx context.Context, baselineName, candidateName string, kind PlotKind, w io.Writer) (*domain.Comparison, error) {
	baseline, candidate, err := p.loadPair(ctx, baselineName, candidateName)
	if err != nil {
		return nil, err
	}
	cmp, err := p.CompareSpectra(ctx, baseline, candidate)
	if err != nil {
		return nil, err
	}
	switch kind {
	case PlotMetrics:
		err = p.deps.Renderer.RenderMetrics(w, cmp.Metrics)
	default:
		err = p.deps.Renderer.RenderOverlay(w, baseline, candidate)
	}
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", candidateName, err)
	}
	return cmp, nil
}

// ExportResult summarizes a batch export.
type ExportResult struct {
	Baseline   string
	Directory  string
	Items      []domain.ExportItem
	ReportPath string
	Duration   time.Duration
}

// Failed returns the number of candidates that were not exported.
func (r *ExportResult) Failed() int {
	n := 0
	for _, it := range r.Items {
		if !it.Succeeded() {
			n++
		}
	}
	return n
}

// OutputName returns "{baselineStem}_{candidateStem}".
func (p *Pipeline) OutputName(baselineName, candidateName string) string {
	return p.deps.Stems.Normalize(baselineName) + "_" + p.deps.Stems.Normalize(candidateName)
}

// Export writes an overlay chart for every candidate against the baseline
// into dir. Candidates are processed in order; a failing candidate is
// recorded on its item and the batch moves on. The returned error is non-nil
// only when the batch could not start (bad directory, unusable baseline),
// was cancelled, or the report could not be written.
func (p *Pipeline) Export(ctx context.Context, dir, baselineName string, candidates []string) (*ExportResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir = p.deps.Paths.Normalize(dir)
	if dir == "" {
		return nil, errors.New("export directory is required")
	}

	baseline, err := p.Load(ctx, baselineName)
	if err != nil {
		p.deps.Logger.Error("Baseline unusable", "baseline", baselineName, "error", err)
		return nil, fmt.Errorf("baseline: %w", err)
	}

	result := &ExportResult{Baseline: baselineName, Directory: dir}
	p.deps.Logger.Info("Starting batch export",
		"baseline", baselineName,
		"candidates", len(candidates),
		"directory", dir,
	)

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		item := p.exportOne(ctx, dir, baseline, name)
		if item.Err != nil {
			p.deps.Logger.Error("Export failed", "candidate", name, "error", item.Err)
		} else {
			p.deps.Logger.Info("Saved figure", "candidate", name, "path", item.Path)
		}
		result.Items = append(result.Items, item)
	}

	if p.config.ReportFormat != report.FormatNone {
		path := filepath.Join(dir, p.deps.Stems.Normalize(baselineName)+"_report"+report.Extension(p.config.ReportFormat))
		if err := p.writeReport(path, report.Rows(baselineName, result.Items)); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.ReportPath = path
	}

	result.Duration = time.Since(start)
	p.deps.Logger.Info("Batch export finished",
		"baseline", baselineName,
		"exported", len(result.Items)-result.Failed(),
		"failed", result.Failed(),
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) exportOne(ctx context.Context, dir string, baseline domain.Spectrum, name string) domain.ExportItem {
	item := domain.ExportItem{Candidate: name}

	candidate, err := p.Load(ctx, name)
	if err != nil {
		item.Err = err
		return item
	}
	cmp, err := p.CompareSpectra(ctx, baseline, candidate)
	if err != nil {
		item.Err = err
		return item
	}
	item.Comparison = cmp

	base := filepath.Join(dir, p.OutputName(baseline.Name, name))
	overlayPath := base + "." + p.config.ImageExtension
	err = p.writeImage(overlayPath, func(w io.Writer) error {
		return p.deps.Renderer.RenderOverlay(w, baseline, candidate)
	})
	if err != nil {
		item.Err = err
		return item
	}
	item.Path = overlayPath

	if p.config.MetricsCharts {
		metricsPath := base + "_metrics." + p.config.ImageExtension
		err = p.writeImage(metricsPath, func(w io.Writer) error {
			return p.deps.Renderer.RenderMetrics(w, cmp.Metrics)
		})
		if err != nil {
			item.Err = err
			return item
		}
		item.MetricsPath = metricsPath
	}
	return item
}

// writeImage renders into a pooled buffer first so a render failure never
// leaves a truncated file behind.
func (p *Pipeline) writeImage(path string, render func(io.Writer) error) error {
	buf := p.buffers.Get()
	defer p.buffers.Put(buf)

	if err := render(buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return p.persist(path, buf)
}

func (p *Pipeline) writeReport(path string, rows []report.Row) error {
	buf := p.buffers.Get()
	defer p.buffers.Put(buf)

	if err := report.Write(buf, p.config.ReportFormat, rows); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return p.persist(path, buf)
}

func (p *Pipeline) persist(path string, buf *bytes.Buffer) error {
	w, err := p.deps.Sink.Create(path)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		_ = w.Close()
		return &domain.IOFailure{Op: "write", Name: path, Err: err}
	}
	if err := w.Close(); err != nil {
		return &domain.IOFailure{Op: "close", Name: path, Err: err}
	}
	return nil
}

func (p *Pipeline) loadPair(ctx context.Context, baselineName, candidateName string) (domain.Spectrum, domain.Spectrum, error) {
	baseline, err := p.Load(ctx, baselineName)
	if err != nil {
		return domain.Spectrum{}, domain.Spectrum{}, err
	}
	candidate, err := p.Load(ctx, candidateName)
	if err != nil {
		return domain.Spectrum{}, domain.Spectrum{}, err
	}
	return baseline, candidate, nil
}
