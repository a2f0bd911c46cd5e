// spectral_similarity.go
// Package spectralsimilarity grades a candidate infrared spectrum against a
// baseline. Both spectra are two-column CSV text (wavenumber, absorbance).
// The mean squared error is taken over the oxidation window, the water
// damage window and everything else (confirmation), and combined as
//
//	score = 1 / (confirmation*40 + oxidation*30 + water_damage*1)
//
// A score above 0.45 passes, above 0.15 is a caution, anything else fails.
// Identical spectra have no error at all and pass with an infinite score.
//
// This package is the short path for callers holding CSV text. See
// pkg/spectra for the typed API and pkg/export for batch chart export.
package spectralsimilarity

import (
	"context"
	"strings"

	"github.com/baditaflorin/l"

	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

// Result holds the outcome of a spectral comparison.
type Result struct {
	// Name of the metric.
	Name string
	// Score is 1/weighted error. Infinite for a perfect match.
	Score float64
	// PerfectMatch is set when every window error is zero.
	PerfectMatch bool
	// Status is "pass", "caution" or "fail".
	Status string
	// Color is the traffic-light label for Status.
	Color string
	// Passed is true only for the pass status.
	Passed bool
	// Metrics are the four window errors.
	Metrics spectra.ErrorMetricSet
	// Details holds additional diagnostic information.
	Details map[string]interface{}
}

// Config holds configuration options for the spectral similarity metric.
type Config struct {
	Windows    spectra.Windows
	Weights    spectra.Weights
	Thresholds spectra.Thresholds
	HeaderRows int
	// Logger for tracing computation steps.
	Logger l.Logger
}

// Option defines a functional option for configuring the metric.
type Option func(*Config)

// WithWindows sets custom oxidation and water damage windows.
func WithWindows(w spectra.Windows) Option {
	return func(cfg *Config) {
		cfg.Windows = w
	}
}

// WithWeights sets the metric weights.
func WithWeights(w spectra.Weights) Option {
	return func(cfg *Config) {
		cfg.Weights = w
	}
}

// WithThresholds sets the pass and caution thresholds.
func WithThresholds(t spectra.Thresholds) Option {
	return func(cfg *Config) {
		cfg.Thresholds = t
	}
}

// WithHeaderRows sets how many leading rows are skipped.
func WithHeaderRows(n int) Option {
	return func(cfg *Config) {
		cfg.HeaderRows = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger l.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// SpectralSimilarity computes the spectral similarity metric using
// configurable parameters.
type SpectralSimilarity struct {
	engine *spectra.SpectralSimilarity
}

// New creates a new SpectralSimilarity with the provided functional options.
// If no logger is provided, a default logger is created.
func New(opts ...Option) (*SpectralSimilarity, error) {
	cfg := Config{HeaderRows: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		logger, err := createDefaultLogger()
		if err != nil {
			return nil, err
		}
		cfg.Logger = logger
	}

	engineOpts := []spectra.Option{
		spectra.WithLogger(cfg.Logger),
		spectra.WithHeaderRows(cfg.HeaderRows),
	}
	if cfg.Windows != (spectra.Windows{}) {
		engineOpts = append(engineOpts, spectra.WithWindows(cfg.Windows))
	}
	if cfg.Weights != (spectra.Weights{}) {
		engineOpts = append(engineOpts, spectra.WithWeights(cfg.Weights))
	}
	if cfg.Thresholds != (spectra.Thresholds{}) {
		engineOpts = append(engineOpts, spectra.WithThresholds(cfg.Thresholds))
	}

	engine, err := spectra.New(engineOpts...)
	if err != nil {
		return nil, err
	}
	return &SpectralSimilarity{engine: engine}, nil
}

// CompareCSV parses both CSV texts, compares them and grades the result.
func (s *SpectralSimilarity) CompareCSV(baselineCSV, candidateCSV string) (Result, error) {
	baseline, err := s.engine.Load("baseline", strings.NewReader(baselineCSV))
	if err != nil {
		return failed(err), err
	}
	candidate, err := s.engine.Load("candidate", strings.NewReader(candidateCSV))
	if err != nil {
		return failed(err), err
	}
	cmp, err := s.engine.CompareSpectra(context.Background(), baseline, candidate)
	if err != nil {
		return failed(err), err
	}

	v := cmp.Verdict
	return Result{
		Name:         "spectral_similarity",
		Score:        v.Score,
		PerfectMatch: v.PerfectMatch,
		Status:       v.Status.String(),
		Color:        v.Status.Color(),
		Passed:       v.Status == spectra.StatusPass,
		Metrics:      cmp.Metrics,
		Details: map[string]interface{}{
			"points": baseline.Len(),
		},
	}, nil
}

// Compute is CompareCSV for callers that only need the Result. Failures
// are reported in Details["error"] with Passed false.
func (s *SpectralSimilarity) Compute(baselineCSV, candidateCSV string) Result {
	res, _ := s.CompareCSV(baselineCSV, candidateCSV)
	return res
}

func failed(err error) Result {
	return Result{
		Name:    "spectral_similarity",
		Status:  spectra.StatusFail.String(),
		Color:   spectra.StatusFail.Color(),
		Details: map[string]interface{}{"error": err.Error()},
	}
}
