package warmup

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of comparisons per routine
	Iterations int
	// Number of points in each synthetic spectrum
	SpectrumPoints int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency:    runtime.NumCPU(),
		Iterations:     200,
		SpectrumPoints: 3630,
		Duration:       5 * time.Second,
		ForceGC:        true,
	}
}

// Stats reports what a warmup run did
type Stats struct {
	Comparisons int64
	Scores      int64
	// Failures counts comparator and scorer errors together.
	Failures int64
	Duration    time.Duration
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	comparators []ports.Comparator
	scorers     []ports.Scorer
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterComparator adds a comparator to be warmed up
func (wm *Manager) RegisterComparator(c ports.Comparator) {
	wm.comparators = append(wm.comparators, c)
}

// RegisterScorer adds a scorer to be warmed up
func (wm *Manager) RegisterScorer(s ports.Scorer) {
	wm.scorers = append(wm.scorers, s)
}

// WarmUp runs comparisons on synthetic spectra with every registered component
func (wm *Manager) WarmUp(ctx context.Context) Stats {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.comparators)+len(wm.scorers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	var warmupCtx context.Context
	var cancel context.CancelFunc
	if wm.config.Duration > 0 {
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	} else {
		warmupCtx = ctx
	}

	baseline := syntheticSpectrum("warmup-baseline", wm.config.SpectrumPoints, 0)
	variants := []domain.Spectrum{
		syntheticSpectrum("warmup-identical", wm.config.SpectrumPoints, 0),
		syntheticSpectrum("warmup-shifted", wm.config.SpectrumPoints, 0.05),
		syntheticSpectrum("warmup-distant", wm.config.SpectrumPoints, 0.8),
	}

	var comparisons, scores, failures int64
	var wg sync.WaitGroup
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < wm.config.Iterations; j++ {
				select {
				case <-warmupCtx.Done():
					return
				default:
				}

				candidate := variants[j%len(variants)]
				for _, c := range wm.comparators {
					m, err := c.Compare(warmupCtx, baseline, candidate)
					atomic.AddInt64(&comparisons, 1)
					if err != nil {
						atomic.AddInt64(&failures, 1)
						continue
					}
					for _, s := range wm.scorers {
						atomic.AddInt64(&scores, 1)
						if _, err := s.Score(m); err != nil {
							atomic.AddInt64(&failures, 1)
						}
					}
				}
			}
		}()
	}
	wg.Wait()

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	stats := Stats{
		Comparisons: atomic.LoadInt64(&comparisons),
		Scores:      atomic.LoadInt64(&scores),
		Failures:    atomic.LoadInt64(&failures),
		Duration:    time.Since(startTime),
	}
	wm.logger.Info("System warmup completed",
		"comparisons", stats.Comparisons,
		"failures", stats.Failures,
		"duration", stats.Duration,
	)
	return stats
}

// syntheticSpectrum builds a smooth absorbance curve over 4000..500 cm-1 with
// a broad water band and a narrow carbonyl peak, raised by offset.
func syntheticSpectrum(name string, n int, offset float64) domain.Spectrum {
	pts := make([]domain.Point, n)
	if n == 0 {
		return domain.Spectrum{Name: name}
	}
	step := 3500.0 / float64(n)
	for i := range pts {
		wn := 4000 - float64(i)*step
		a := 0.2 +
			1.2*math.Exp(-math.Pow((wn-3400)/180, 2)) +
			2.5*math.Exp(-math.Pow((wn-1715)/25, 2)) +
			offset
		pts[i] = domain.Point{Wavenumber: wn, Absorbance: a}
	}
	return domain.Spectrum{Name: name, Points: pts}
}
