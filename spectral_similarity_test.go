// spectral_similarity_test.go
package spectralsimilarity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

// csvSpectrum builds n rows; rows in [from,to) are shifted by delta.
func csvSpectrum(n, from, to int, delta float64) string {
	var sb strings.Builder
	sb.WriteString("cm-1,A\n")
	for i := 0; i < n; i++ {
		a := 0.5 + 0.25*math.Sin(float64(i)/50)
		if i >= from && i < to {
			a += delta
		}
		fmt.Fprintf(&sb, "%.4f,%.6f\n", 4000-float64(i)*0.964, a)
	}
	return sb.String()
}

func TestComputeWithDefaults(t *testing.T) {
	baseline := csvSpectrum(3400, 0, 0, 0)

	tests := []struct {
		name      string
		candidate string
		status    string
		expected  bool // whether the result should pass
	}{
		{
			name:      "Identical spectra",
			candidate: baseline,
			status:    "pass",
			expected:  true,
		},
		{
			name:      "Slight water damage",
			candidate: csvSpectrum(3400, 400, 800, 1),
			status:    "pass",
			expected:  true,
		},
		{
			name: "Mild oxidation",
			// MSE 0.0625 over the window, score 1/1.875
			candidate: csvSpectrum(3400, 3260, 3280, 0.25),
			status:    "pass",
			expected:  true,
		},
		{
			name: "Heavy oxidation",
			// MSE 1 over the window, score 1/30
			candidate: csvSpectrum(3400, 3260, 3280, 1),
			status:    "fail",
			expected:  false,
		},
		{
			name: "Shift outside the windows",
			// confirmation MSE 0.04*100/3000, score 1/0.0533
			candidate: csvSpectrum(3400, 0, 100, 0.2),
			status:    "pass",
			expected:  true,
		},
		{
			name:      "Empty candidate",
			candidate: "",
			status:    "fail",
			expected:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ComputeWithDefaults(baseline, tc.candidate)
			if result.Passed != tc.expected {
				t.Errorf("expected passed=%v, got %v, details: %v", tc.expected, result.Passed, result.Details)
			}
			if result.Status != tc.status {
				t.Errorf("expected status %q, got %q", tc.status, result.Status)
			}
		})
	}
}

func TestPerfectMatch(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	baseline := csvSpectrum(900, 0, 0, 0)
	// Only the oxidation window is missing from a 900-row spectrum.
	_, err = s.CompareCSV(baseline, baseline)
	if !errors.Is(err, spectra.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}

	baseline = csvSpectrum(3300, 0, 0, 0)
	res, err := s.CompareCSV(baseline, baseline)
	if err != nil {
		t.Fatal(err)
	}
	if !res.PerfectMatch || !math.IsInf(res.Score, 1) || res.Color != "Green" {
		t.Errorf("unexpected perfect match result: %+v", res)
	}
}

func TestCautionBand(t *testing.T) {
	s, err := New(WithThresholds(spectra.Thresholds{Pass: 0.9, Caution: 0.15}))
	if err != nil {
		t.Fatal(err)
	}
	// oxidation MSE 0.0625, score 0.533
	res, err := s.CompareCSV(csvSpectrum(3300, 0, 0, 0), csvSpectrum(3300, 3260, 3280, 0.25))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "caution" || res.Color != "Yellow" || res.Passed {
		t.Errorf("expected caution, got %+v", res)
	}
}

func TestMalformedInput(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.CompareCSV("cm-1,A\n4000,abc\n", csvSpectrum(3300, 0, 0, 0))
	if !errors.Is(err, spectra.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if res.Details["error"] == nil {
		t.Error("expected error detail")
	}
}
