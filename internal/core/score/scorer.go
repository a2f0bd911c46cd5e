package score

import (
	"errors"
	"math"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// Weights scale each sub-band MSE in the denominator of the score.
type Weights struct {
	Confirmation float64 `json:"confirmation"`
	Oxidation    float64 `json:"oxidation"`
	WaterDamage  float64 `json:"water_damage"`
}

// Thresholds are the strict lower bounds for Pass and Caution.
type Thresholds struct {
	Pass    float64 `json:"pass"`
	Caution float64 `json:"caution"`
}

// Config holds configuration for the quality scorer.
type Config struct {
	Weights    Weights
	Thresholds Thresholds
	// StrictDegenerate returns a DegenerateScoreError for a zero weighted
	// sum instead of reporting a perfect match.
	StrictDegenerate bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Weights:    Weights{Confirmation: 40, Oxidation: 30, WaterDamage: 1},
		Thresholds: Thresholds{Pass: 0.45, Caution: 0.15},
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	w := c.Weights
	if w.Confirmation < 0 || w.Oxidation < 0 || w.WaterDamage < 0 {
		return errors.New("weights must not be negative")
	}
	if w.Confirmation == 0 && w.Oxidation == 0 && w.WaterDamage == 0 {
		return errors.New("at least one weight must be positive")
	}
	if c.Thresholds.Caution <= 0 {
		return errors.New("caution threshold must be greater than 0")
	}
	if c.Thresholds.Pass <= c.Thresholds.Caution {
		return errors.New("pass threshold must be greater than caution threshold")
	}
	return nil
}

// Scorer maps error metrics to a quality verdict.
type Scorer struct {
	config Config
	logger ports.Logger
}

// NewScorer creates a new scorer.
func NewScorer(config Config, logger ports.Logger) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{config: config, logger: logger}, nil
}

// Score computes 1 / (Confirmation*wc + Oxidation*wo + WaterDamage*ww) and
// classifies it. A zero weighted sum is a perfect match and scores +Inf.
func (s *Scorer) Score(m domain.ErrorMetricSet) (domain.QualityVerdict, error) {
	w := s.config.Weights
	sum := m.Confirmation*w.Confirmation + m.Oxidation*w.Oxidation + m.WaterDamage*w.WaterDamage

	if math.IsNaN(sum) || sum < 0 {
		s.logger.Error("Invalid weighted error sum", "sum", sum)
		return domain.QualityVerdict{}, &domain.DegenerateScoreError{Metrics: m}
	}

	if sum == 0 {
		if s.config.StrictDegenerate {
			s.logger.Warn("Weighted error sum is zero", "metrics", m)
			return domain.QualityVerdict{}, &domain.DegenerateScoreError{Metrics: m}
		}
		s.logger.Debug("Perfect match")
		return domain.QualityVerdict{
			Score:        math.Inf(1),
			Status:       domain.StatusPass,
			PerfectMatch: true,
		}, nil
	}

	value := 1 / sum
	verdict := domain.QualityVerdict{
		Score:  value,
		Status: s.Classify(value),
	}

	s.logger.Debug("Computed quality score",
		"score", value,
		"status", verdict.Status.String(),
	)

	return verdict, nil
}

// Classify maps a score to a status using strict lower bounds: a score
// equal to a threshold falls into the band below it, so exactly 0.15 is Fail
// and exactly 0.45 is Caution with the default thresholds.
func (s *Scorer) Classify(value float64) domain.Status {
	switch {
	case value > s.config.Thresholds.Pass:
		return domain.StatusPass
	case value > s.config.Thresholds.Caution:
		return domain.StatusCaution
	default:
		return domain.StatusFail
	}
}

// Thresholds returns the configured thresholds.
func (s *Scorer) Thresholds() Thresholds {
	return s.config.Thresholds
}
