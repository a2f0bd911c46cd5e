package ports

import (
	"io"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

// Renderer draws comparison charts as images.
type Renderer interface {
	RenderOverlay(w io.Writer, baseline, candidate domain.Spectrum) error
	RenderMetrics(w io.Writer, metrics domain.ErrorMetricSet) error
}
