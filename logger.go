// logger.go
// Package spectralsimilarity provides shared utilities for the go_spectral_similarity package.
package spectralsimilarity

import (
	"os"

	"github.com/baditaflorin/l"
)

// createDefaultLogger creates and returns a default logger instance.
func createDefaultLogger() (l.Logger, error) {
	return l.NewStandardFactory().CreateLogger(l.Config{
		Output:      os.Stdout,
		JsonFormat:  false,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,      // 1MB buffer
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
}

// ComputeWithDefaults compares two CSV spectra with the default settings.
func ComputeWithDefaults(baselineCSV, candidateCSV string) Result {
	s, err := New()
	if err != nil {
		return failed(err)
	}
	return s.Compute(baselineCSV, candidateCSV)
}
