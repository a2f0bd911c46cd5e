package domain

import (
	"fmt"
	"math"
)

// Canonical column identifiers for a cleaned spectrum.
const (
	ColumnWavenumber = "wavenumber"
	ColumnAbsorbance = "absorbance"
)

// Point is a single (wavenumber, absorbance) sample.
type Point struct {
	Wavenumber float64 `json:"wavenumber"`
	Absorbance float64 `json:"absorbance"`
}

// Spectrum is an absorbance-vs-wavenumber series in acquisition order.
// The index of a point is what sub-band windows address, so two spectra
// are only comparable when they come from the same instrument setup.
type Spectrum struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Len returns the number of samples.
func (s Spectrum) Len() int {
	return len(s.Points)
}

// Absorbance returns the absorbance column.
func (s Spectrum) Absorbance() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Absorbance
	}
	return out
}

// Wavenumbers returns the wavenumber column.
func (s Spectrum) Wavenumbers() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Wavenumber
	}
	return out
}

// ErrorMetricSet holds the four MSE values of one comparison.
type ErrorMetricSet struct {
	Overall      float64 `json:"overall"`
	Confirmation float64 `json:"confirmation"`
	Oxidation    float64 `json:"oxidation"`
	WaterDamage  float64 `json:"water_damage"`
}

// MetricLabels are the display names of the metrics, in Values order.
var MetricLabels = []string{"Overall", "Confirmation", "Oxidation", "Water Damage"}

// Values returns the metrics in display order.
func (m ErrorMetricSet) Values() []float64 {
	return []float64{m.Overall, m.Confirmation, m.Oxidation, m.WaterDamage}
}

// Status is the three-level quality classification.
type Status int

const (
	// StatusFail is shown as Red.
	StatusFail Status = iota
	// StatusCaution is shown as Yellow.
	StatusCaution
	// StatusPass is shown as Green.
	StatusPass
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusCaution:
		return "caution"
	default:
		return "fail"
	}
}

// Color returns the traffic-light label used by lab reports.
func (s Status) Color() string {
	switch s {
	case StatusPass:
		return "Green"
	case StatusCaution:
		return "Yellow"
	default:
		return "Red"
	}
}

// MarshalText encodes the status as its String form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the String form or the Color label.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass", "Green":
		*s = StatusPass
	case "caution", "Yellow":
		*s = StatusCaution
	case "fail", "Red":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// QualityVerdict is the scalar score and its classification.
// A perfect match has Score +Inf and PerfectMatch set.
type QualityVerdict struct {
	Score        float64
	Status       Status
	PerfectMatch bool
}

// FiniteScore returns the score, or nil when it is infinite.
func (v QualityVerdict) FiniteScore() *float64 {
	if math.IsInf(v.Score, 0) || math.IsNaN(v.Score) {
		return nil
	}
	s := v.Score
	return &s
}

// Comparison is the outcome of comparing one candidate with a baseline.
type Comparison struct {
	Baseline  string
	Candidate string
	Metrics   ErrorMetricSet
	Verdict   QualityVerdict
}

// ExportItem records what happened to one candidate in a batch export.
type ExportItem struct {
	Candidate   string
	Path        string
	MetricsPath string
	Comparison  *Comparison
	Err         error
}

// Succeeded reports whether the item was exported.
func (it ExportItem) Succeeded() bool {
	return it.Err == nil
}
