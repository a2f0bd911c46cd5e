package spectrum

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// LoaderConfig holds configuration for the spectrum loader.
type LoaderConfig struct {
	// HeaderRows is the number of leading rows dropped before data.
	HeaderRows int
	// Comma is the field delimiter.
	Comma rune
}

// DefaultLoaderConfig returns a default configuration.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		HeaderRows: 1,
		Comma:      ',',
	}
}

// Validate checks if the configuration is valid.
func (c LoaderConfig) Validate() error {
	if c.HeaderRows < 0 {
		return errors.New("header rows must not be negative")
	}
	if c.Comma == 0 || c.Comma == '"' || c.Comma == '\r' || c.Comma == '\n' {
		return errors.New("invalid field delimiter")
	}
	return nil
}

// Loader parses two-column CSV spectra.
type Loader struct {
	config LoaderConfig
	logger ports.Logger
}

// NewLoader creates a new spectrum loader.
func NewLoader(config LoaderConfig, logger ports.Logger) (*Loader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Loader{config: config, logger: logger}, nil
}

// LoadBytes parses an in-memory file.
func (l *Loader) LoadBytes(name string, data []byte) (domain.Spectrum, error) {
	return l.Load(name, bytes.NewReader(data))
}

// Load reads r as CSV, drops the header rows and coerces both columns to float64.
func (l *Loader) Load(name string, r io.Reader) (domain.Spectrum, error) {
	cr := csv.NewReader(r)
	cr.Comma = l.config.Comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		points  []domain.Point
		rowsIn  int
		skipped int
	)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return domain.Spectrum{}, &domain.ParseError{File: name, Line: line, Reason: "malformed csv", Err: err}
		}
		rowsIn++
		line, _ := cr.FieldPos(0)

		if skipped < l.config.HeaderRows {
			skipped++
			continue
		}

		p, err := parseRecord(name, line, record)
		if err != nil {
			return domain.Spectrum{}, err
		}
		points = append(points, p)
	}

	if rowsIn == 0 {
		return domain.Spectrum{}, &domain.ParseError{File: name, Reason: "empty input"}
	}
	if len(points) == 0 {
		return domain.Spectrum{}, &domain.ParseError{File: name, Reason: "no data rows after header"}
	}

	l.logger.Debug("Loaded spectrum",
		"name", name,
		"points", len(points),
		"header_rows", skipped,
	)

	return domain.Spectrum{Name: name, Points: points}, nil
}

func parseRecord(name string, line int, record []string) (domain.Point, error) {
	if len(record) < 2 {
		return domain.Point{}, &domain.ParseError{
			File:   name,
			Line:   line,
			Reason: "expected 2 columns, got " + strconv.Itoa(len(record)),
		}
	}
	// Trailing empty fields come from exports that end rows with a delimiter.
	for _, extra := range record[2:] {
		if strings.TrimSpace(extra) != "" {
			return domain.Point{}, &domain.ParseError{
				File:   name,
				Line:   line,
				Reason: "expected 2 columns, got " + strconv.Itoa(len(record)),
			}
		}
	}

	wn, err := parseValue(name, line, domain.ColumnWavenumber, record[0])
	if err != nil {
		return domain.Point{}, err
	}
	ab, err := parseValue(name, line, domain.ColumnAbsorbance, record[1])
	if err != nil {
		return domain.Point{}, err
	}
	return domain.Point{Wavenumber: wn, Absorbance: ab}, nil
}

func parseValue(name string, line int, column, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &domain.ParseError{File: name, Line: line, Column: column, Reason: "non-numeric value " + strconv.Quote(raw)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.ParseError{File: name, Line: line, Column: column, Reason: "non-finite value " + strconv.Quote(raw)}
	}
	return v, nil
}
