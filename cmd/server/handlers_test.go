package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_spectral_similarity/pkg/export"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

func spectrumCSV(n int, from, to int, delta float64) string {
	var sb strings.Builder
	sb.WriteString("cm-1,A\n")
	for i := 0; i < n; i++ {
		a := 1.0
		if i >= from && i < to {
			a += delta
		}
		fmt.Fprintf(&sb, "%d,%g\n", 4000-i, a)
	}
	return sb.String()
}

func newTestServer(t *testing.T, exportRoot string) (*server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.csv"), []byte(spectrumCSV(3300, 0, 0, 0)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ox.csv"), []byte(spectrumCSV(3300, 3260, 3280, 1)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.csv"), []byte(spectrumCSV(100, 0, 0, 0)), 0o644))

	lg := logger.NewNopLogger()
	ss, err := spectra.New(spectra.WithPortLogger(lg))
	require.NoError(t, err)
	store, err := export.OpenDir(dir, lg)
	require.NoError(t, err)
	ex, err := export.New(store, export.WithSimilarity(ss), export.WithLogger(lg))
	require.NoError(t, err)
	return newServer(ss, ex, exportRoot, lg), dir
}

func do(s *server, method, uri string, body interface{}) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		b, _ := json.Marshal(body)
		ctx.Request.SetBody(b)
	}
	s.handle(&ctx)
	return &ctx
}

func TestHealthAndFiles(t *testing.T) {
	s, _ := newTestServer(t, "")

	ctx := do(s, fasthttp.MethodGet, "/health", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodGet, "/files", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var files struct {
		Files []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &files))
	assert.Equal(t, []string{"base.csv", "ox.csv", "short.csv"}, files.Files)

	ctx = do(s, fasthttp.MethodGet, "/nope", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestCompare(t *testing.T) {
	s, _ := newTestServer(t, "")

	ctx := do(s, fasthttp.MethodPost, "/compare", CompareRequest{Baseline: "base.csv", Candidate: "ox.csv"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp CompareResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, spectra.StatusFail, resp.Status)
	assert.Equal(t, "Red", resp.Color)
	require.NotNil(t, resp.Score)
	assert.InDelta(t, 1.0/30, *resp.Score, 1e-9)

	ctx = do(s, fasthttp.MethodPost, "/compare", CompareRequest{Baseline: "base.csv", Candidate: "base.csv"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	resp = CompareResponse{}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.True(t, resp.PerfectMatch)
	assert.Nil(t, resp.Score)
	assert.Equal(t, spectra.StatusPass, resp.Status)
}

func TestCompareErrors(t *testing.T) {
	s, _ := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		uri    string
		body   interface{}
		status int
	}{
		{"wrong method", fasthttp.MethodGet, "/compare", nil, fasthttp.StatusMethodNotAllowed},
		{"missing candidate", fasthttp.MethodPost, "/compare", CompareRequest{Baseline: "base.csv"}, fasthttp.StatusBadRequest},
		{"short candidate", fasthttp.MethodPost, "/compare", CompareRequest{Baseline: "base.csv", Candidate: "short.csv"}, fasthttp.StatusUnprocessableEntity},
		{"missing file", fasthttp.MethodPost, "/compare", CompareRequest{Baseline: "base.csv", Candidate: "gone.csv"}, fasthttp.StatusBadGateway},
		{"bad raw csv", fasthttp.MethodPost, "/compare/raw", RawCompareRequest{BaselineCSV: "cm-1,A\n1,x\n", CandidateCSV: "cm-1,A\n1,2\n"}, fasthttp.StatusUnprocessableEntity},
		{"plot without names", fasthttp.MethodGet, "/plot/overlay", nil, fasthttp.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(s, tc.method, tc.uri, tc.body)
			assert.Equal(t, tc.status, ctx.Response.StatusCode(), string(ctx.Response.Body()))
		})
	}
}

func TestCompareRaw(t *testing.T) {
	s, _ := newTestServer(t, "")
	ctx := do(s, fasthttp.MethodPost, "/compare/raw", RawCompareRequest{
		BaselineCSV:  spectrumCSV(3300, 0, 0, 0),
		CandidateCSV: spectrumCSV(3300, 400, 800, 0.5),
	})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp CompareResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.InDelta(t, 0.25, resp.Metrics.WaterDamage, 1e-12)
	assert.Equal(t, spectra.StatusPass, resp.Status)
}

func TestPlot(t *testing.T) {
	s, _ := newTestServer(t, "")
	ctx := do(s, fasthttp.MethodGet, "/plot/metrics?baseline=base.csv&candidate=ox.csv", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.Equal(t, "image/png", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "fail", string(ctx.Response.Header.Peek("X-Spectral-Status")))
	assert.True(t, strings.HasPrefix(string(ctx.Response.Body()), "\x89PNG"))
}

func TestExport(t *testing.T) {
	root := t.TempDir()
	s, _ := newTestServer(t, root)

	for _, d := range []string{"../escape", `..\escape`, `"..\escape"`, `run1\..\..\escape`, "/tmp/abs"} {
		ctx := do(s, fasthttp.MethodPost, "/export", ExportRequest{Directory: d, Baseline: "base.csv", Candidates: []string{"ox.csv"}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), d)
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(root), "escape"))
	assert.True(t, os.IsNotExist(err), "nothing is written outside the export root")

	ctx := do(s, fasthttp.MethodPost, "/export", ExportRequest{Directory: `nested\run0`, Baseline: "base.csv", Candidates: []string{"ox.csv"}})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.FileExists(t, filepath.Join(root, "nested", "run0", "base_ox.png"))

	ctx = do(s, fasthttp.MethodPost, "/export", ExportRequest{
		Directory:  "run1",
		Baseline:   "base.csv",
		Candidates: []string{"ox.csv", "short.csv"},
	})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp ExportResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, filepath.Join(root, "run1", "base_ox.png"), resp.Items[0].Path)
	assert.NotEmpty(t, resp.Items[1].Error)

	_, err = os.Stat(filepath.Join(root, "run1", "base_ox.png"))
	assert.NoError(t, err)

	ctx = do(s, fasthttp.MethodPost, "/export", ExportRequest{Directory: "run2", Baseline: "gone.csv", Candidates: []string{"ox.csv"}})
	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
}

func TestResolveExportDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "exports")
	s := &server{exportRoot: root, paths: normalizer.NewPathNormalizer()}

	tests := []struct {
		dir  string
		want string
		ok   bool
	}{
		{"run1", filepath.Join(root, "run1"), true},
		{`a\b`, filepath.Join(root, "a", "b"), true},
		{`"a/b/"`, filepath.Join(root, "a", "b"), true},
		{"a/../b", filepath.Join(root, "b"), true},
		{"..", "", false},
		{"../outside", "", false},
		{`..\outside`, "", false},
		{`'..\outside'`, "", false},
		{`a\..\..\outside`, "", false},
		{"/etc", "", false},
	}
	for _, tc := range tests {
		got, err := s.resolveExportDir(tc.dir)
		if !tc.ok {
			assert.Error(t, err, tc.dir)
			continue
		}
		require.NoError(t, err, tc.dir)
		assert.Equal(t, tc.want, got)
	}

	s.exportRoot = ""
	got, err := s.resolveExportDir(`..\anywhere`)
	require.NoError(t, err)
	assert.Equal(t, `..\anywhere`, got)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("png"))
	assert.Equal(t, "image/svg+xml", contentType("svg"))
	assert.Equal(t, "application/pdf", contentType("pdf"))
	assert.Equal(t, "application/octet-stream", contentType("bmp"))
}

func TestPlotSVG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.csv"), []byte(spectrumCSV(3300, 0, 0, 0)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ox.csv"), []byte(spectrumCSV(3300, 3260, 3280, 1)), 0o644))

	lg := logger.NewNopLogger()
	ss, err := spectra.New(spectra.WithPortLogger(lg))
	require.NoError(t, err)
	store, err := export.OpenDir(dir, lg)
	require.NoError(t, err)
	rc := export.DefaultRenderConfig()
	rc.Format = "svg"
	ex, err := export.New(store, export.WithSimilarity(ss), export.WithLogger(lg), export.WithRenderConfig(rc))
	require.NoError(t, err)
	s := newServer(ss, ex, "", lg)

	ctx := do(s, fasthttp.MethodGet, "/plot/overlay?baseline=base.csv&candidate=ox.csv", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.Equal(t, "image/svg+xml", string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Body()), "<svg")
}
