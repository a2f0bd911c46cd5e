package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func spectrum(name string, n int, offset float64) domain.Spectrum {
	pts := make([]domain.Point, n)
	for i := range pts {
		pts[i] = domain.Point{Wavenumber: 4000 - float64(i)*(3500/float64(n)), Absorbance: offset + float64(i%50)/25}
	}
	return domain.Spectrum{Name: name, Points: pts}
}

func TestRenderOverlayPNG(t *testing.T) {
	r, err := NewRenderer(DefaultConfig(), logger.NewNopLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderOverlay(&buf, spectrum("base.csv", 400, 0.5), spectrum("cand.csv", 400, 0.7)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderMetricsPNG(t *testing.T) {
	r, err := NewRenderer(DefaultConfig(), logger.NewNopLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	m := domain.ErrorMetricSet{Overall: 0.02, Confirmation: 0.01, Oxidation: 0.3, WaterDamage: 0.05}
	require.NoError(t, r.RenderMetrics(&buf, m))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderSVG(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "svg"
	r, err := NewRenderer(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderMetrics(&buf, domain.ErrorMetricSet{}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"empty x range", func(c *Config) { c.XTo = c.XFrom }},
		{"inverted y", func(c *Config) { c.YMin, c.YMax = 6, 0 }},
		{"zero step", func(c *Config) { c.YStep = 0 }},
		{"bad format", func(c *Config) { c.Format = "gif" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := NewRenderer(cfg, logger.NewNopLogger())
			assert.Error(t, err)
		})
	}
}

func TestStepTicks(t *testing.T) {
	ticks := stepTicks(0, 6, 0.5)
	require.Len(t, ticks, 13)
	assert.Equal(t, 0.0, ticks[0].Value)
	assert.Equal(t, 6.0, ticks[12].Value)
	assert.Equal(t, "0.5", ticks[1].Label)
}
