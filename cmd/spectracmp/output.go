package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/baditaflorin/go_spectral_similarity/pkg/export"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

type comparisonOutput struct {
	Candidate    string                  `json:"candidate"`
	Metrics      *spectra.ErrorMetricSet `json:"metrics,omitempty"`
	Score        *float64                `json:"score,omitempty"`
	PerfectMatch bool                    `json:"perfect_match,omitempty"`
	Status       string                  `json:"status,omitempty"`
	Color        string                  `json:"color,omitempty"`
	Path         string                  `json:"path,omitempty"`
	MetricsPath  string                  `json:"metrics_path,omitempty"`
	Error        string                  `json:"error,omitempty"`
	DurationMS   float64                 `json:"duration_ms,omitempty"`
}

func (o *comparisonOutput) fill(cmp spectra.Comparison) {
	m := cmp.Metrics
	o.Metrics = &m
	o.Score = cmp.Verdict.FiniteScore()
	o.PerfectMatch = cmp.Verdict.PerfectMatch
	o.Status = cmp.Verdict.Status.String()
	o.Color = cmp.Verdict.Status.Color()
}

func outputList(w io.Writer, names []string) error {
	if outputFormat == "json" {
		if names == nil {
			names = []string{}
		}
		return writeJSON(w, map[string]interface{}{"files": names})
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func outputComparisons(w io.Writer, rows []comparisonOutput) error {
	if outputFormat == "json" {
		return writeJSON(w, map[string]interface{}{
			"baseline": baseline,
			"results":  rows,
		})
	}
	fmt.Fprintf(w, "Baseline: %s\n", baseline)
	for _, r := range rows {
		writeTextRow(w, r)
	}
	return nil
}

func outputExport(w io.Writer, res *export.Result) error {
	rows := make([]comparisonOutput, 0, len(res.Items))
	for _, it := range res.Items {
		row := comparisonOutput{Candidate: it.Candidate, Path: it.Path, MetricsPath: it.MetricsPath}
		if it.Comparison != nil {
			row.fill(*it.Comparison)
		}
		if it.Err != nil {
			row.Error = it.Err.Error()
		}
		rows = append(rows, row)
	}

	if outputFormat == "json" {
		return writeJSON(w, map[string]interface{}{
			"baseline":    res.Baseline,
			"directory":   res.Directory,
			"results":     rows,
			"failed":      res.Failed(),
			"report_path": res.ReportPath,
			"duration_ms": float64(res.Duration.Microseconds()) / 1000,
		})
	}

	fmt.Fprintf(w, "Baseline: %s\n", res.Baseline)
	fmt.Fprintf(w, "Directory: %s\n", res.Directory)
	for _, r := range rows {
		writeTextRow(w, r)
	}
	if res.ReportPath != "" {
		fmt.Fprintf(w, "\nReport: %s\n", res.ReportPath)
	}
	fmt.Fprintf(w, "Exported: %d, failed: %d, took %s\n", len(rows)-res.Failed(), res.Failed(), res.Duration)
	return nil
}

func writeTextRow(w io.Writer, r comparisonOutput) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Candidate)
	if r.Metrics != nil {
		fmt.Fprintf(w, "Overall MSE: %.6g\n", r.Metrics.Overall)
		fmt.Fprintf(w, "Confirmation MSE: %.6g\n", r.Metrics.Confirmation)
		fmt.Fprintf(w, "Oxidation MSE: %.6g\n", r.Metrics.Oxidation)
		fmt.Fprintf(w, "Water damage MSE: %.6g\n", r.Metrics.WaterDamage)
		if r.PerfectMatch {
			fmt.Fprintf(w, "Score: perfect match\n")
		} else if r.Score != nil {
			fmt.Fprintf(w, "Score: %.4f\n", *r.Score)
		}
		fmt.Fprintf(w, "Status: %s (%s)\n", r.Color, r.Status)
	}
	if r.Path != "" {
		fmt.Fprintf(w, "Saved: %s\n", r.Path)
	}
	if r.MetricsPath != "" {
		fmt.Fprintf(w, "Saved: %s\n", r.MetricsPath)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if verbose && r.DurationMS > 0 {
		fmt.Fprintf(w, "Processing time: %.2f ms\n", r.DurationMS)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
