package ports

import (
	"context"
	"io"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

// SpectrumLoader parses raw tabular input into a cleaned spectrum.
type SpectrumLoader interface {
	Load(name string, r io.Reader) (domain.Spectrum, error)
}

// Comparator computes the error metrics between a baseline and a candidate.
type Comparator interface {
	Compare(ctx context.Context, baseline, candidate domain.Spectrum) (domain.ErrorMetricSet, error)
}

// Scorer turns error metrics into a quality verdict.
type Scorer interface {
	Score(metrics domain.ErrorMetricSet) (domain.QualityVerdict, error)
}
