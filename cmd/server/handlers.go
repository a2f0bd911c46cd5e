package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_spectral_similarity/internal/pool"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
	"github.com/baditaflorin/go_spectral_similarity/pkg/export"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

const requestTimeout = 30 * time.Second

// CompareRequest names a baseline and a candidate held in the store.
type CompareRequest struct {
	Baseline  string `json:"baseline"`
	Candidate string `json:"candidate"`
}

// RawCompareRequest carries both spectra inline as CSV text.
type RawCompareRequest struct {
	BaselineCSV  string `json:"baseline_csv"`
	CandidateCSV string `json:"candidate_csv"`
}

// ExportRequest asks for overlay charts of every candidate.
type ExportRequest struct {
	Directory  string   `json:"directory"`
	Baseline   string   `json:"baseline"`
	Candidates []string `json:"candidates"`
}

// CompareResponse is the metrics and verdict for one pair.
type CompareResponse struct {
	Baseline     string                 `json:"baseline"`
	Candidate    string                 `json:"candidate"`
	Metrics      spectra.ErrorMetricSet `json:"metrics"`
	Score        *float64               `json:"score"`
	PerfectMatch bool                   `json:"perfect_match"`
	Status       spectra.Status         `json:"status"`
	Color        string                 `json:"color"`
}

// ExportItemResponse reports one candidate of a batch export.
type ExportItemResponse struct {
	Candidate   string           `json:"candidate"`
	Path        string           `json:"path,omitempty"`
	MetricsPath string           `json:"metrics_path,omitempty"`
	Result      *CompareResponse `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ExportResponse summarizes a batch export.
type ExportResponse struct {
	Baseline       string               `json:"baseline"`
	Directory      string               `json:"directory"`
	Items          []ExportItemResponse `json:"items"`
	Failed         int                  `json:"failed"`
	ReportPath     string               `json:"report_path,omitempty"`
	ProcessingTime string               `json:"processing_time"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

type server struct {
	similarity *spectra.SpectralSimilarity
	exporter   *export.Exporter
	exportRoot string
	paths      ports.Normalizer
	buffers    *pool.BufferPool
	logger     ports.Logger
}

func newServer(ss *spectra.SpectralSimilarity, ex *export.Exporter, exportRoot string, lg ports.Logger) *server {
	return &server{
		similarity: ss,
		exporter:   ex,
		exportRoot: exportRoot,
		paths:      normalizer.NewPathNormalizer(),
		buffers:    pool.NewBufferPool(256 * 1024),
		logger:     lg,
	}
}

// handle is the main fasthttp request handler
func (s *server) handle(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	ctx.Response.Header.Set("Content-Type", "application/json")

	switch string(ctx.Path()) {
	case "/health":
		s.handleHealthCheck(ctx)
	case "/files":
		s.handleFiles(ctx)
	case "/compare":
		s.handleCompare(ctx)
	case "/compare/raw":
		s.handleCompareRaw(ctx)
	case "/plot/overlay":
		s.handlePlot(ctx, export.PlotOverlay)
	case "/plot/metrics":
		s.handlePlot(ctx, export.PlotMetrics)
	case "/export":
		s.handleExport(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		s.writeJSONError(ctx, "Not found")
	}

	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (s *server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleFiles(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}
	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	names, err := s.exporter.List(c)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{"files": names})
}

func (s *server) handleCompare(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}
	var req CompareRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	if req.Baseline == "" || req.Candidate == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Both baseline and candidate are required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cmp, err := s.exporter.Compare(c, req.Baseline, req.Candidate)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, toCompareResponse(*cmp))
}

func (s *server) handleCompareRaw(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}
	var req RawCompareRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	if req.BaselineCSV == "" || req.CandidateCSV == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Both baseline_csv and candidate_csv are required")
		return
	}

	baseline, err := s.similarity.Load("baseline", strings.NewReader(req.BaselineCSV))
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}
	candidate, err := s.similarity.Load("candidate", strings.NewReader(req.CandidateCSV))
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cmp, err := s.similarity.CompareSpectra(c, baseline, candidate)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, toCompareResponse(cmp))
}

func (s *server) handlePlot(ctx *fasthttp.RequestCtx, kind export.PlotKind) {
	if !ctx.IsGet() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}
	args := ctx.QueryArgs()
	baseline := string(args.Peek("baseline"))
	candidate := string(args.Peek("candidate"))
	if baseline == "" || candidate == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Both baseline and candidate are required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	cmp, err := s.exporter.Plot(c, baseline, candidate, kind, buf)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentType(s.exporter.ImageFormat()))
	ctx.Response.Header.Set("X-Spectral-Status", cmp.Verdict.Status.String())
	ctx.SetBody(buf.Bytes())
}

func (s *server) handleExport(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}
	var req ExportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	if req.Directory == "" || req.Baseline == "" || len(req.Candidates) == 0 {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "directory, baseline and candidates are required")
		return
	}
	dir, err := s.resolveExportDir(req.Directory)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, err.Error())
		return
	}

	c, cancel := context.WithTimeout(context.Background(), 5*requestTimeout)
	defer cancel()

	res, err := s.exporter.Export(c, dir, req.Baseline, req.Candidates)
	if res == nil {
		s.writeFailure(ctx, err)
		return
	}
	if err != nil {
		// The batch stopped part way; report what was written.
		s.logger.Warn("Export incomplete", "baseline", req.Baseline, "error", err)
	}

	resp := ExportResponse{
		Baseline:       res.Baseline,
		Directory:      res.Directory,
		Failed:         res.Failed(),
		ReportPath:     res.ReportPath,
		ProcessingTime: res.Duration.String(),
	}
	for _, it := range res.Items {
		item := ExportItemResponse{
			Candidate:   it.Candidate,
			Path:        it.Path,
			MetricsPath: it.MetricsPath,
		}
		if it.Comparison != nil {
			cr := toCompareResponse(*it.Comparison)
			item.Result = &cr
		}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		resp.Items = append(resp.Items, item)
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, resp)
}

// resolveExportDir keeps client-supplied directories under exportRoot when
// one is configured. The directory is normalized the same way the pipeline
// normalizes it, so backslash separators cannot hide a "..".
func (s *server) resolveExportDir(dir string) (string, error) {
	if s.exportRoot == "" {
		return dir, nil
	}
	errEscape := errors.New("directory must be relative to the export root")

	clean := filepath.Clean(filepath.FromSlash(s.paths.Normalize(dir)))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errEscape
	}

	root := filepath.Clean(s.exportRoot)
	joined := filepath.Join(root, clean)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errEscape
	}
	return joined, nil
}

// contentType maps a chart format to its media type.
func contentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	case "tif", "tiff":
		return "image/tiff"
	case "eps":
		return "application/postscript"
	default:
		return "application/octet-stream"
	}
}

func toCompareResponse(cmp spectra.Comparison) CompareResponse {
	return CompareResponse{
		Baseline:     cmp.Baseline,
		Candidate:    cmp.Candidate,
		Metrics:      cmp.Metrics,
		Score:        cmp.Verdict.FiniteScore(),
		PerfectMatch: cmp.Verdict.PerfectMatch,
		Status:       cmp.Verdict.Status,
		Color:        cmp.Verdict.Status.Color(),
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, spectra.ErrParse),
		errors.Is(err, spectra.ErrInsufficientData),
		errors.Is(err, spectra.ErrDegenerateScore):
		return fasthttp.StatusUnprocessableEntity
	case errors.Is(err, spectra.ErrIO):
		return fasthttp.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	default:
		return fasthttp.StatusInternalServerError
	}
}

func (s *server) writeFailure(ctx *fasthttp.RequestCtx, err error) {
	code := statusFor(err)
	if code >= fasthttp.StatusInternalServerError {
		s.logger.Error("Request failed", "path", string(ctx.Path()), "error", err)
	}
	ctx.SetStatusCode(code)
	s.writeJSONError(ctx, err.Error())
}

// writeJSONResponse writes a JSON response to the context
func (s *server) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON response", "error", err)
		s.writeJSONError(ctx, "Internal server error")
		return
	}
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func (s *server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}
	ctx.SetBody(response)
}
