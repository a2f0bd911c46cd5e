package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_spectral_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
	"github.com/baditaflorin/go_spectral_similarity/pkg/export"
	"github.com/baditaflorin/go_spectral_similarity/pkg/spectra"
)

// Default configuration
const (
	DefaultPort           = 8080
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxRequestSize = 10 * 1024 * 1024 // 10MB
	DefaultConcurrency    = 0                // 0 means use GOMAXPROCS
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", DefaultPort, "HTTP server port")
	readTimeout := flag.Duration("read-timeout", DefaultReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", DefaultWriteTimeout, "HTTP write timeout")
	maxRequestSize := flag.Int("max-request-size", DefaultMaxRequestSize, "Maximum request size in bytes")
	concurrency := flag.Int("concurrency", DefaultConcurrency, "Maximum number of concurrent requests (0 = GOMAXPROCS)")
	warmUp := flag.Bool("warm-up", true, "Perform system warm-up on startup")
	logFile := flag.String("log-file", "", "Log file path (empty = stdout)")
	storeKind := flag.String("store", "dir", "Spectrum store: dir or s3 (s3 reads SPECTRA_BUCKET and AWS_* from the environment)")
	dir := flag.String("dir", ".", "Directory holding spectrum CSV files when -store=dir")
	exportRoot := flag.String("export-root", "", "Confine /export directories under this path (empty = any path)")
	headerRows := flag.Int("header-rows", 1, "Leading rows to skip in each CSV file")
	imageFormat := flag.String("image-format", "png", "Chart format: png, jpg, svg, pdf, tif or eps")
	flag.Parse()

	// Set up logger
	lg, err := logger.New(logger.Options{FilePath: *logFile, JSON: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Close()

	lg.Info("Starting spectral similarity HTTP server",
		"port", *port,
		"read_timeout", *readTimeout,
		"write_timeout", *writeTimeout,
		"max_request_size", *maxRequestSize,
		"concurrency", *concurrency,
		"store", *storeKind,
	)

	srv, err := initServer(*storeKind, *dir, *exportRoot, *imageFormat, *headerRows, *warmUp, lg)
	if err != nil {
		lg.Error("Failed to initialize server", "error", err)
		lg.Close()
		os.Exit(1)
	}

	// Create HTTP server with fasthttp
	server := &fasthttp.Server{
		Handler:               srv.handle,
		Name:                  "SpectralSimilarityServer",
		ReadTimeout:           *readTimeout,
		WriteTimeout:          *writeTimeout,
		MaxRequestBodySize:    *maxRequestSize,
		Concurrency:           *concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	// Set up graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lg.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			lg.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	addr := fmt.Sprintf(":%d", *port)
	lg.Info("Server listening", "address", addr)
	if err := server.ListenAndServe(addr); err != nil {
		lg.Error("Server error", "error", err)
		return
	}

	<-idleConnsClosed
	lg.Info("Server stopped")
}

// initServer assembles the comparison engine and the store-backed exporter.
func initServer(storeKind, dir, exportRoot, imageFormat string, headerRows int, warmUp bool, lg ports.Logger) (*server, error) {
	ss, err := spectra.New(
		spectra.WithPortLogger(lg),
		spectra.WithHeaderRows(headerRows),
		spectra.WithWarmUp(warmUp),
	)
	if err != nil {
		return nil, err
	}

	var store export.Store
	switch storeKind {
	case "dir":
		store, err = export.OpenDir(dir, lg)
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err = export.OpenS3(ctx, export.S3ConfigFromEnv(), lg)
	default:
		err = fmt.Errorf("unknown store %q", storeKind)
	}
	if err != nil {
		return nil, err
	}

	rc := export.DefaultRenderConfig()
	rc.Format = imageFormat
	ex, err := export.New(store,
		export.WithSimilarity(ss),
		export.WithRenderConfig(rc),
		export.WithLogger(lg),
		export.WithMetricsCharts(true),
		export.WithReport(export.ReportJSON),
	)
	if err != nil {
		return nil, err
	}

	lg.Info("Spectral similarity initialized successfully",
		"warm_up", warmUp,
		"cpus", runtime.NumCPU(),
	)
	return newServer(ss, ex, exportRoot, lg), nil
}
