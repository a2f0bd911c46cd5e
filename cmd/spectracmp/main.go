package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/storage"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
	"github.com/baditaflorin/go_spectral_similarity/pkg/export"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

// Command-line flags
var (
	storeKind     string
	dir           string
	bucket        string
	prefix        string
	region        string
	endpoint      string
	list          bool
	baseline      string
	candidates    string
	exportDir     string
	metricsCharts bool
	reportFormat  string
	headerRows    int
	outputFormat  string
	verbose       bool
	timeout       time.Duration
)

func init() {
	// Store selection
	flag.StringVar(&storeKind, "store", "dir", "Spectrum store: 'dir' or 's3'")
	flag.StringVar(&dir, "dir", ".", "Directory holding spectrum CSV files (store=dir)")
	flag.StringVar(&bucket, "bucket", storage.EnvOr(storage.EnvBucket, ""), "Bucket name (store=s3)")
	flag.StringVar(&prefix, "prefix", storage.EnvOr(storage.EnvPrefix, ""), "Key prefix inside the bucket (store=s3)")
	flag.StringVar(&region, "region", "", "AWS region (store=s3, default from AWS_REGION)")
	flag.StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint URL (store=s3)")

	// What to do
	flag.BoolVar(&list, "list", false, "List available spectrum files and exit")
	flag.StringVar(&baseline, "baseline", "", "Baseline spectrum file name")
	flag.StringVar(&candidates, "candidates", "", "Comma-separated candidate file names")
	flag.StringVar(&exportDir, "export-dir", "", "Write overlay charts for every candidate into this directory")
	flag.BoolVar(&metricsCharts, "metrics-charts", false, "Also export the error-metric bar chart per candidate")
	flag.StringVar(&reportFormat, "report", export.ReportNone, "Batch report format: 'parquet', 'json' or 'none'")

	// Parsing and output
	flag.IntVar(&headerRows, "header-rows", 1, "Leading rows to skip in each CSV file")
	flag.StringVar(&outputFormat, "output", "text", "Output format: 'text' or 'json'")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall time limit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -dir=./spectra -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -dir=./spectra -baseline=new_oil.csv -candidates=used_1.csv,used_2.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store=s3 -bucket=lab-spectra -baseline=new_oil.csv -candidates=used_1.csv -export-dir=./plots -report=parquet\n", os.Args[0])
	}
}

func main() {
	flag.Parse()

	if err := validateInputs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	code, err := run(ctx, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

// validateInputs validates the command-line inputs
func validateInputs() error {
	switch storeKind {
	case "dir", "s3":
	default:
		return fmt.Errorf("invalid store: %s. Must be 'dir' or 's3'", storeKind)
	}
	if storeKind == "s3" && bucket == "" {
		return errors.New("store=s3 needs -bucket or SPECTRA_BUCKET")
	}
	if !list {
		if baseline == "" {
			return errors.New("must provide -baseline (or -list)")
		}
		if len(splitList(candidates)) == 0 {
			return errors.New("must provide at least one candidate")
		}
	}
	switch reportFormat {
	case export.ReportParquet, export.ReportJSON, export.ReportNone:
	default:
		return fmt.Errorf("invalid report format: %s. Must be 'parquet', 'json' or 'none'", reportFormat)
	}
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid output format: %s. Must be 'text' or 'json'", outputFormat)
	}
	if headerRows < 0 {
		return errors.New("header-rows must not be negative")
	}
	return nil
}

// run executes the requested action and returns the process exit code:
// 0 when everything passed, 1 when a candidate failed or errored.
func run(ctx context.Context, out io.Writer) (int, error) {
	lg, err := createLogger()
	if err != nil {
		return 1, err
	}
	defer lg.Close()

	store, err := openStore(ctx, lg)
	if err != nil {
		return 1, err
	}

	ss, err := spectra.New(spectra.WithPortLogger(lg), spectra.WithHeaderRows(headerRows))
	if err != nil {
		return 1, err
	}
	ex, err := export.New(store,
		export.WithSimilarity(ss),
		export.WithLogger(lg),
		export.WithMetricsCharts(metricsCharts),
		export.WithReport(reportFormat),
	)
	if err != nil {
		return 1, err
	}

	switch {
	case list:
		names, err := ex.List(ctx)
		if err != nil {
			return 1, err
		}
		return 0, outputList(out, names)
	case exportDir != "":
		res, err := ex.Export(ctx, exportDir, baseline, splitList(candidates))
		if res == nil {
			return 1, err
		}
		if outErr := outputExport(out, res); outErr != nil {
			return 1, outErr
		}
		if err != nil || res.Failed() > 0 {
			return 1, err
		}
		return 0, nil
	default:
		return compareAll(ctx, out, ex)
	}
}

func compareAll(ctx context.Context, out io.Writer, ex *export.Exporter) (int, error) {
	code := 0
	var rows []comparisonOutput
	for _, name := range splitList(candidates) {
		startTime := time.Now()
		cmp, err := ex.Compare(ctx, baseline, name)
		row := comparisonOutput{Candidate: name, DurationMS: float64(time.Since(startTime).Microseconds()) / 1000}
		if err != nil {
			row.Error = err.Error()
			code = 1
		} else {
			row.fill(*cmp)
			if cmp.Verdict.Status != spectra.StatusPass {
				code = 1
			}
		}
		rows = append(rows, row)
	}
	return code, outputComparisons(out, rows)
}

func openStore(ctx context.Context, lg ports.Logger) (export.Store, error) {
	if storeKind == "dir" {
		return export.OpenDir(dir, lg)
	}
	cfg := export.S3ConfigFromEnv()
	cfg.Bucket = bucket
	cfg.Prefix = prefix
	if region != "" {
		cfg.Region = region
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
		cfg.PathStyle = true
	}
	return export.OpenS3(ctx, cfg, lg)
}

// createLogger logs to stderr in verbose mode and discards otherwise.
func createLogger() (ports.Logger, error) {
	if !verbose {
		return logger.NewNopLogger(), nil
	}
	return logger.New(logger.Options{Output: os.Stderr})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
