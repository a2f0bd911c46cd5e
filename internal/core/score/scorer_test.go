package score

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

func newTestScorer(t *testing.T, cfg Config) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return s
}

func TestScoreOxidationScenario(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	v, err := s.Score(domain.ErrorMetricSet{Overall: 20.0 / 3500, Oxidation: 1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/30.0, v.Score, 1e-12)
	assert.Equal(t, domain.StatusFail, v.Status)
	assert.Equal(t, "Red", v.Status.Color())
	assert.False(t, v.PerfectMatch)
}

func TestScoreStatuses(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	tests := []struct {
		name    string
		metrics domain.ErrorMetricSet
		want    domain.Status
	}{
		// 1 / (0.05*40) = 0.5
		{"pass", domain.ErrorMetricSet{Confirmation: 0.05}, domain.StatusPass},
		// 1 / 4 = 0.25
		{"caution", domain.ErrorMetricSet{WaterDamage: 4}, domain.StatusCaution},
		// 1 / 10 = 0.1
		{"fail", domain.ErrorMetricSet{WaterDamage: 10}, domain.StatusFail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := s.Score(tc.metrics)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Status)
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	assert.Equal(t, domain.StatusCaution, s.Classify(0.45))
	assert.Equal(t, domain.StatusCaution, s.Classify(math.Nextafter(0.15, 1)))
	assert.Equal(t, domain.StatusFail, s.Classify(0.15))
	assert.Equal(t, domain.StatusPass, s.Classify(math.Nextafter(0.45, 1)))
	assert.Equal(t, domain.StatusFail, s.Classify(0))
}

func TestScorePerfectMatch(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	v, err := s.Score(domain.ErrorMetricSet{})
	require.NoError(t, err)
	assert.True(t, v.PerfectMatch)
	assert.True(t, math.IsInf(v.Score, 1))
	assert.Equal(t, domain.StatusPass, v.Status)
	assert.Nil(t, v.FiniteScore())
}

func TestScoreIgnoresOverall(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	v, err := s.Score(domain.ErrorMetricSet{Overall: 3})
	require.NoError(t, err)
	assert.True(t, v.PerfectMatch)
}

func TestScoreStrictDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictDegenerate = true
	s := newTestScorer(t, cfg)

	_, err := s.Score(domain.ErrorMetricSet{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDegenerateScore))
}

func TestScoreMonotonic(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())
	base := domain.ErrorMetricSet{Confirmation: 0.01, Oxidation: 0.02, WaterDamage: 0.3}

	bumps := []func(m *domain.ErrorMetricSet, d float64){
		func(m *domain.ErrorMetricSet, d float64) { m.Confirmation += d },
		func(m *domain.ErrorMetricSet, d float64) { m.Oxidation += d },
		func(m *domain.ErrorMetricSet, d float64) { m.WaterDamage += d },
	}

	for i, bump := range bumps {
		prev, err := s.Score(base)
		require.NoError(t, err)
		m := base
		for step := 0; step < 50; step++ {
			bump(&m, 0.013)
			next, err := s.Score(m)
			require.NoError(t, err)
			assert.LessOrEqual(t, next.Score, prev.Score, "metric %d step %d", i, step)
			assert.LessOrEqual(t, next.Status, prev.Status, "metric %d step %d", i, step)
			prev = next
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.Weights.Oxidation = -1 }},
		{"all weights zero", func(c *Config) { c.Weights = Weights{} }},
		{"zero caution", func(c *Config) { c.Thresholds.Caution = 0 }},
		{"pass below caution", func(c *Config) { c.Thresholds.Pass = 0.1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := NewScorer(cfg, logger.NewNopLogger())
			assert.Error(t, err)
		})
	}
}
