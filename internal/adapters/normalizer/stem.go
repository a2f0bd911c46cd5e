package normalizer

import (
	"path"
	"strings"

	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// StemNormalizer reduces an object name to a file-name-safe stem: the base
// name without its extension.
type StemNormalizer struct{}

// NewStemNormalizer creates a new stem normalizer.
func NewStemNormalizer() ports.Normalizer {
	return &StemNormalizer{}
}

// Normalize returns the stem of name, e.g. "runs/oil A.csv" -> "oil A".
func (n *StemNormalizer) Normalize(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
