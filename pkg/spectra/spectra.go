// Package spectra compares infrared spectra against a baseline and grades
// the difference as Pass, Caution or Fail.
package spectra

import (
	"context"
	"io"

	"github.com/baditaflorin/l"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/compare"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/score"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/spectrum"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
	"github.com/baditaflorin/go_spectral_similarity/internal/warmup"
)

// Re-exported domain types.
type (
	Spectrum       = domain.Spectrum
	Point          = domain.Point
	ErrorMetricSet = domain.ErrorMetricSet
	QualityVerdict = domain.QualityVerdict
	Status         = domain.Status
	Comparison     = domain.Comparison
	Range          = compare.Range
	Windows        = compare.Windows
	Weights        = score.Weights
	Thresholds     = score.Thresholds
	WarmupConfig   = warmup.WarmupConfig
)

// DefaultWarmupConfig returns the default warm-up configuration.
func DefaultWarmupConfig() WarmupConfig {
	return warmup.DefaultWarmupConfig()
}

// Status values.
const (
	StatusPass    = domain.StatusPass
	StatusCaution = domain.StatusCaution
	StatusFail    = domain.StatusFail
)

// Error kinds, for use with errors.Is.
var (
	ErrParse            = domain.ErrParse
	ErrInsufficientData = domain.ErrInsufficientData
	ErrDegenerateScore  = domain.ErrDegenerateScore
	ErrIO               = domain.ErrIO
)

// SpectralSimilarity loads, compares and scores spectra.
type SpectralSimilarity struct {
	loader     *spectrum.Loader
	comparator *compare.Comparator
	scorer     *score.Scorer
	logger     ports.Logger
	warmed     bool
}

// Option defines a functional option for configuring SpectralSimilarity.
type Option func(*config)

type config struct {
	Loader       spectrum.LoaderConfig
	Compare      compare.Config
	Score        score.Config
	Logger       ports.Logger
	WarmUp       bool
	WarmUpConfig warmup.WarmupConfig
}

// WithLogger sets a custom logger.
func WithLogger(lg l.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = logger.FromExisting(lg)
	}
}

// WithPortLogger sets a logger already adapted to the internal interface.
func WithPortLogger(lg ports.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = lg
	}
}

// WithWindows sets the oxidation and water-damage index windows.
func WithWindows(w Windows) Option {
	return func(cfg *config) {
		cfg.Compare.Windows = w
	}
}

// WithWeights sets the sub-band weights of the score denominator.
func WithWeights(w Weights) Option {
	return func(cfg *config) {
		cfg.Score.Weights = w
	}
}

// WithThresholds sets the Pass and Caution lower bounds.
func WithThresholds(t Thresholds) Option {
	return func(cfg *config) {
		cfg.Score.Thresholds = t
	}
}

// WithStrictDegenerate makes a zero weighted error sum an error instead of
// a perfect-match Pass.
func WithStrictDegenerate(strict bool) Option {
	return func(cfg *config) {
		cfg.Score.StrictDegenerate = strict
	}
}

// WithHeaderRows sets how many leading rows the loader drops.
func WithHeaderRows(n int) Option {
	return func(cfg *config) {
		cfg.Loader.HeaderRows = n
	}
}

// WithDelimiter sets the CSV field delimiter.
func WithDelimiter(r rune) Option {
	return func(cfg *config) {
		cfg.Loader.Comma = r
	}
}

// WithWarmUp enables system warm-up on initialization.
func WithWarmUp(enable bool) Option {
	return func(cfg *config) {
		cfg.WarmUp = enable
	}
}

// WithWarmUpConfig sets a custom warm-up configuration.
func WithWarmUpConfig(wc WarmupConfig) Option {
	return func(cfg *config) {
		cfg.WarmUpConfig = wc
		cfg.WarmUp = true
	}
}

// New creates a new SpectralSimilarity instance.
func New(opts ...Option) (*SpectralSimilarity, error) {
	cfg := &config{
		Loader:       spectrum.DefaultLoaderConfig(),
		Compare:      compare.DefaultConfig(),
		Score:        score.DefaultConfig(),
		WarmUpConfig: warmup.DefaultWarmupConfig(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		var err error
		cfg.Logger, err = logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
	}

	loader, err := spectrum.NewLoader(cfg.Loader, cfg.Logger)
	if err != nil {
		return nil, err
	}
	comparator, err := compare.NewComparator(cfg.Compare, cfg.Logger)
	if err != nil {
		return nil, err
	}
	scorer, err := score.NewScorer(cfg.Score, cfg.Logger)
	if err != nil {
		return nil, err
	}

	ss := &SpectralSimilarity{
		loader:     loader,
		comparator: comparator,
		scorer:     scorer,
		logger:     cfg.Logger,
	}
	if cfg.WarmUp {
		ss.WarmUp(context.Background(), cfg.WarmUpConfig)
	}
	return ss, nil
}

// Load parses a two-column CSV spectrum.
func (ss *SpectralSimilarity) Load(name string, r io.Reader) (Spectrum, error) {
	return ss.loader.Load(name, r)
}

// LoadBytes parses an in-memory CSV spectrum.
func (ss *SpectralSimilarity) LoadBytes(name string, data []byte) (Spectrum, error) {
	return ss.loader.LoadBytes(name, data)
}

// Compare computes the four error metrics of candidate against baseline.
func (ss *SpectralSimilarity) Compare(ctx context.Context, baseline, candidate Spectrum) (ErrorMetricSet, error) {
	return ss.comparator.Compare(ctx, baseline, candidate)
}

// Score grades a metric set.
func (ss *SpectralSimilarity) Score(metrics ErrorMetricSet) (QualityVerdict, error) {
	return ss.scorer.Score(metrics)
}

// CompareSpectra compares and scores in one call.
func (ss *SpectralSimilarity) CompareSpectra(ctx context.Context, baseline, candidate Spectrum) (Comparison, error) {
	metrics, err := ss.comparator.Compare(ctx, baseline, candidate)
	if err != nil {
		return Comparison{}, err
	}
	verdict, err := ss.scorer.Score(metrics)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Baseline:  baseline.Name,
		Candidate: candidate.Name,
		Metrics:   metrics,
		Verdict:   verdict,
	}, nil
}

// Loader exposes the configured loader for pipeline assembly.
func (ss *SpectralSimilarity) Loader() ports.SpectrumLoader { return ss.loader }

// Comparator exposes the configured comparator for pipeline assembly.
func (ss *SpectralSimilarity) Comparator() ports.Comparator { return ss.comparator }

// Scorer exposes the configured scorer for pipeline assembly.
func (ss *SpectralSimilarity) Scorer() ports.Scorer { return ss.scorer }

// Logger returns the logger in use.
func (ss *SpectralSimilarity) Logger() ports.Logger { return ss.logger }

// WarmUp performs system warm-up to optimize performance.
func (ss *SpectralSimilarity) WarmUp(ctx context.Context, wc WarmupConfig) {
	if ss.warmed {
		ss.logger.Debug("System already warmed up, skipping")
		return
	}

	mgr := warmup.NewManager(ss.logger, wc)
	mgr.RegisterComparator(ss.comparator)
	mgr.RegisterScorer(ss.scorer)
	mgr.WarmUp(ctx)
	ss.warmed = true
}
