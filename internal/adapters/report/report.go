package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

// Supported report formats.
const (
	FormatParquet = "parquet"
	FormatJSON    = "json"
	FormatNone    = "none"
)

// Row is one exported candidate in a batch report.
type Row struct {
	Baseline     string   `parquet:"baseline" json:"baseline"`
	Candidate    string   `parquet:"candidate" json:"candidate"`
	Path         string   `parquet:"path" json:"path,omitempty"`
	Overall      *float64 `parquet:"overall,optional" json:"overall,omitempty"`
	Confirmation *float64 `parquet:"confirmation,optional" json:"confirmation,omitempty"`
	Oxidation    *float64 `parquet:"oxidation,optional" json:"oxidation,omitempty"`
	WaterDamage  *float64 `parquet:"water_damage,optional" json:"water_damage,omitempty"`
	Score        *float64 `parquet:"score,optional" json:"score,omitempty"`
	PerfectMatch bool     `parquet:"perfect_match" json:"perfect_match"`
	Status       string   `parquet:"status" json:"status,omitempty"`
	Error        string   `parquet:"error" json:"error,omitempty"`
}

// Rows flattens export items into report rows.
func Rows(baseline string, items []domain.ExportItem) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		row := Row{Baseline: baseline, Candidate: it.Candidate, Path: it.Path}
		if it.Err != nil {
			row.Error = it.Err.Error()
		}
		if c := it.Comparison; c != nil {
			m := c.Metrics
			row.Overall = ptr(m.Overall)
			row.Confirmation = ptr(m.Confirmation)
			row.Oxidation = ptr(m.Oxidation)
			row.WaterDamage = ptr(m.WaterDamage)
			row.Score = c.Verdict.FiniteScore()
			row.PerfectMatch = c.Verdict.PerfectMatch
			row.Status = c.Verdict.Status.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	return "." + format
}

// Validate reports whether format is supported.
func Validate(format string) error {
	switch format {
	case FormatParquet, FormatJSON, FormatNone:
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case FormatParquet:
		return parquet.Write(w, rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatNone:
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func ptr(v float64) *float64 {
	return &v
}
