package compare

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/pool"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// Config holds configuration for the spectrum comparator.
type Config struct {
	Windows Windows
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{Windows: DefaultWindows()}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	return c.Windows.Validate()
}

// Comparator computes mean squared errors over the full spectrum and its sub-bands.
type Comparator struct {
	config  Config
	logger  ports.Logger
	scratch *pool.Float64Pool
}

// NewComparator creates a new comparator.
func NewComparator(config Config, logger ports.Logger) (*Comparator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Comparator{
		config:  config,
		logger:  logger,
		scratch: pool.NewFloat64Pool(4096),
	}, nil
}

// Windows returns the configured sub-band windows.
func (c *Comparator) Windows() Windows {
	return c.config.Windows
}

// Compare computes the ErrorMetricSet of candidate against baseline. Both
// spectra must have the same length and cover every sub-band window.
func (c *Comparator) Compare(ctx context.Context, baseline, candidate domain.Spectrum) (domain.ErrorMetricSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.ErrorMetricSet{}, err
	}

	n := baseline.Len()
	if candidate.Len() != n {
		c.logger.Error("Spectrum lengths differ",
			"baseline", baseline.Name,
			"baseline_points", n,
			"candidate", candidate.Name,
			"candidate_points", candidate.Len(),
		)
		return domain.ErrorMetricSet{}, &domain.InsufficientDataError{
			Window: DomainOverall,
			Reason: fmt.Sprintf("baseline has %d points, candidate has %d", n, candidate.Len()),
		}
	}

	w := c.config.Windows
	for _, win := range []struct {
		name string
		r    Range
	}{{DomainWaterDamage, w.WaterDamage}, {DomainOxidation, w.Oxidation}} {
		if n < win.r.End {
			return domain.ErrorMetricSet{}, &domain.InsufficientDataError{Window: win.name, Required: win.r.End, Got: n}
		}
	}

	confirmation := complement(n, w.Oxidation, w.WaterDamage)
	if totalLen(confirmation) == 0 {
		return domain.ErrorMetricSet{}, &domain.InsufficientDataError{
			Window: DomainConfirmation,
			Reason: "no points left after excluding sub-band windows",
		}
	}

	buf := c.scratch.Get(n)
	defer c.scratch.Put(buf)
	diff := *buf
	for i := range baseline.Points {
		diff[i] = baseline.Points[i].Absorbance
	}
	for i := range candidate.Points {
		diff[i] -= candidate.Points[i].Absorbance
	}

	metrics := domain.ErrorMetricSet{
		Overall:      mse(diff, Range{Start: 0, End: n}),
		Confirmation: mse(diff, confirmation...),
		Oxidation:    mse(diff, w.Oxidation),
		WaterDamage:  mse(diff, w.WaterDamage),
	}

	c.logger.Debug("Computed error metrics",
		"baseline", baseline.Name,
		"candidate", candidate.Name,
		"points", n,
		"overall", metrics.Overall,
		"confirmation", metrics.Confirmation,
		"oxidation", metrics.Oxidation,
		"water_damage", metrics.WaterDamage,
	)

	return metrics, nil
}

// MSE returns the mean squared difference of a and b. The slices must have
// equal, non-zero length.
func MSE(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.InsufficientDataError{
			Window: DomainOverall,
			Reason: fmt.Sprintf("length mismatch %d vs %d", len(a), len(b)),
		}
	}
	if len(a) == 0 {
		return 0, &domain.InsufficientDataError{Window: DomainOverall, Required: 1, Got: 0}
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return mse(diff, Range{Start: 0, End: len(diff)}), nil
}

// mse averages squared differences over the given disjoint ranges.
func mse(diff []float64, ranges ...Range) float64 {
	var sum float64
	for _, r := range ranges {
		seg := diff[r.Start:r.End]
		sum += floats.Dot(seg, seg)
	}
	return sum / float64(totalLen(ranges))
}

func totalLen(ranges []Range) int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}
