package normalizer

import (
	"strings"

	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// PathNormalizer cleans directory paths pasted from a file manager's
// "copy path" action.
type PathNormalizer struct{}

// NewPathNormalizer creates a new path normalizer.
func NewPathNormalizer() ports.Normalizer {
	return &PathNormalizer{}
}

// Normalize trims whitespace, strips surrounding quotes, converts backslashes
// to forward slashes and drops a trailing separator.
func (n *PathNormalizer) Normalize(text string) string {
	text = strings.TrimSpace(text)
	for _, q := range []string{`"`, `'`} {
		text = strings.TrimPrefix(text, q)
		text = strings.TrimSuffix(text, q)
	}
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, `\`, "/")
	for len(text) > 1 && strings.HasSuffix(text, "/") && !isVolumeRoot(text) {
		text = text[:len(text)-1]
	}
	return text
}

// isVolumeRoot reports whether p is a drive root such as "C:/".
func isVolumeRoot(p string) bool {
	return len(p) == 3 && p[1] == ':' && p[2] == '/'
}
