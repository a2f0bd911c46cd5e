package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// Config holds configuration for the chart renderer.
type Config struct {
	// Width and Height of the image in inches.
	Width  float64
	Height float64
	// Format is any image format gonum/plot can encode, e.g. "png" or "svg".
	Format string
	// Overlay axis ranges. XFrom is drawn on the left, so XFrom > XTo
	// gives the reversed wavenumber axis used for IR spectra.
	XFrom, XTo float64
	YMin, YMax float64
	YStep      float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Width:  7,
		Height: 7,
		Format: "png",
		XFrom:  4000,
		XTo:    500,
		YMin:   0,
		YMax:   6,
		YStep:  0.5,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New("image size must be positive")
	}
	if c.XFrom == c.XTo {
		return errors.New("x range must not be empty")
	}
	if c.YMax <= c.YMin {
		return errors.New("y max must be greater than y min")
	}
	if c.YStep <= 0 {
		return errors.New("y step must be positive")
	}
	switch c.Format {
	case "png", "jpg", "jpeg", "svg", "pdf", "tif", "tiff", "eps":
	default:
		return fmt.Errorf("unsupported image format %q", c.Format)
	}
	return nil
}

// Series and bar colors.
var (
	BaselineColor  = color.RGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF} // blue
	CandidateColor = color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xFF} // green
	MetricColors   = []color.Color{
		color.RGBA{R: 0xAD, G: 0xEB, B: 0xB3, A: 0xFF},
		color.RGBA{R: 0xF0, G: 0xAD, B: 0x4E, A: 0xFF},
		color.RGBA{R: 0xD9, G: 0x53, B: 0x4F, A: 0xFF},
		color.RGBA{R: 0x87, G: 0xCE, B: 0xEB, A: 0xFF}, // skyblue
	}
)

// Chart titles.
const (
	OverlayTitle = "Graph of Selected Sample Compared to Baseline File"
	MetricsTitle = "Mean Squared Error for Current Plot"
)

// Renderer draws comparison charts with gonum/plot.
type Renderer struct {
	config Config
	logger ports.Logger
}

// NewRenderer creates a new renderer.
func NewRenderer(config Config, logger ports.Logger) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{config: config, logger: logger}, nil
}

// Format returns the configured image format.
func (r *Renderer) Format() string {
	return r.config.Format
}

// RenderOverlay draws baseline and candidate as two line series on shared axes.
func (r *Renderer) RenderOverlay(w io.Writer, baseline, candidate domain.Spectrum) error {
	p := plot.New()
	p.Title.Text = OverlayTitle
	p.X.Label.Text = "cm-1"
	p.Y.Label.Text = "A"
	p.Legend.Top = false
	p.Legend.Left = false

	for _, s := range []struct {
		spectrum domain.Spectrum
		color    color.Color
	}{{baseline, BaselineColor}, {candidate, CandidateColor}} {
		line, err := plotter.NewLine(toXYs(s.spectrum))
		if err != nil {
			return fmt.Errorf("plot %s: %w", s.spectrum.Name, err)
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.spectrum.Name, line)
	}

	// Fixed ranges are set after Add, which widens the axes to the data.
	lo, hi := r.config.XFrom, r.config.XTo
	if lo > hi {
		lo, hi = hi, lo
		p.X.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	}
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = r.config.YMin, r.config.YMax
	p.Y.Tick.Marker = plot.ConstantTicks(stepTicks(r.config.YMin, r.config.YMax, r.config.YStep))

	r.logger.Debug("Rendering overlay",
		"baseline", baseline.Name,
		"candidate", candidate.Name,
		"format", r.config.Format,
	)
	return r.write(w, p)
}

// RenderMetrics draws the four error metrics as a colored bar chart.
func (r *Renderer) RenderMetrics(w io.Writer, metrics domain.ErrorMetricSet) error {
	p := plot.New()
	p.Title.Text = MetricsTitle
	p.X.Label.Text = "Types of Mean Squared Error"
	p.Y.Label.Text = "Mean Squared Error Value"

	for i, v := range metrics.Values() {
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(40))
		if err != nil {
			return fmt.Errorf("plot %s: %w", domain.MetricLabels[i], err)
		}
		bar.XMin = float64(i)
		bar.Color = MetricColors[i%len(MetricColors)]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	p.NominalX(domain.MetricLabels...)
	p.Y.Min = 0

	return r.write(w, p)
}

func (r *Renderer) write(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(vg.Length(r.config.Width)*vg.Inch, vg.Length(r.config.Height)*vg.Inch, r.config.Format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.config.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", r.config.Format, err)
	}
	return nil
}

func toXYs(s domain.Spectrum) plotter.XYs {
	xys := make(plotter.XYs, len(s.Points))
	for i, pt := range s.Points {
		xys[i].X = pt.Wavenumber
		xys[i].Y = pt.Absorbance
	}
	return xys
}

func stepTicks(lo, hi, step float64) []plot.Tick {
	var ticks []plot.Tick
	n := int((hi-lo)/step + 0.5)
	for i := 0; i <= n; i++ {
		v := lo + float64(i)*step
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return ticks
}
