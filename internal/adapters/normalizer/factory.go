package normalizer

import "github.com/baditaflorin/go_spectral_similarity/internal/ports"

// NormalizerFactory creates normalizers by purpose
type NormalizerFactory struct{}

// NewNormalizerFactory creates a new normalizer factory
func NewNormalizerFactory() *NormalizerFactory {
	return &NormalizerFactory{}
}

// NormalizerType selects what a normalizer cleans
type NormalizerType int

const (
	// PathNormalizerType cleans user-entered directory paths
	PathNormalizerType NormalizerType = iota
	// StemNormalizerType reduces object names to output file stems
	StemNormalizerType
)

// CreateNormalizer creates a normalizer of the specified type
func (f *NormalizerFactory) CreateNormalizer(normalizerType NormalizerType) ports.Normalizer {
	switch normalizerType {
	case StemNormalizerType:
		return NewStemNormalizer()
	default:
		return NewPathNormalizer()
	}
}
