// Package sweep drives the acquisition pipeline: it walks a frequency range
// step by step, turns each capture into a PSD segment and assembles the
// stitched spectrum, or tracks a single frequency for live RSSI and distance
// estimation.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/roman-kulish/radio-spectrum/internal/dsp"
	"github.com/roman-kulish/radio-spectrum/internal/sdr"
	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

// DefaultRSSIRef is the reference RSSI in dBm measured at one meter, used for
// distance estimation until the caller supplies a calibrated value.
const DefaultRSSIRef = -50.0

// Session owns one acquisition pipeline: a capture source, the spectral
// estimators and their scratch buffers, and the current sweep and tracking
// parameters. Parameters can be adjusted between runs from any goroutine,
// but Sweep and Track themselves are serialized: the estimators reuse their
// buffers across calls.
type Session struct {
	capturer sdr.Capturer
	hw       sdr.Config
	fft      FFTConfig
	logger   *slog.Logger

	sweepEst *dsp.Estimator
	trackEst *dsp.Estimator
	stitcher *dsp.Stitcher

	runMu sync.Mutex // serializes Sweep/Track

	mu        sync.Mutex // guards the adjustable parameters below
	cfg       Config
	trackFreq int64
	rssiRef   float64
}

// SessionOption configures optional Session behaviour.
type SessionOption func(*Session)

// WithLogger sets the logger used for per-step diagnostics.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an acquisition session. The tracked frequency defaults
// to the sweep start and the RSSI reference to DefaultRSSIRef; both can be
// adjusted later.
func NewSession(capturer sdr.Capturer, hw sdr.Config, cfg Config, fft FFTConfig, opts ...SessionOption) (*Session, error) {
	if capturer == nil {
		return nil, fmt.Errorf("sweep: session requires a capture source")
	}
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := fft.Validate(); err != nil {
		return nil, err
	}

	newEstimator := func(mode dsp.AxisMode) (*dsp.Estimator, error) {
		tr, err := dsp.NewTransformer(fft.Backend, fft.Size)
		if err != nil {
			return nil, err
		}
		return dsp.NewEstimator(tr, hw.SampleRate, mode)
	}

	sweepEst, err := newEstimator(dsp.AxisBaseband)
	if err != nil {
		return nil, fmt.Errorf("sweep: creating sweep estimator: %w", err)
	}
	trackEst, err := newEstimator(dsp.AxisCentered)
	if err != nil {
		return nil, fmt.Errorf("sweep: creating tracking estimator: %w", err)
	}

	s := &Session{
		capturer:  capturer,
		hw:        hw,
		fft:       fft,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sweepEst:  sweepEst,
		trackEst:  trackEst,
		stitcher:  dsp.NewStitcher(),
		cfg:       cfg,
		trackFreq: cfg.StartFrequency,
		rssiRef:   DefaultRSSIRef,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SweepConfig returns the parameters the next sweep will use.
func (s *Session) SweepConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetSweepConfig replaces the sweep parameters. A sweep already in flight
// finishes with the parameters it started with.
func (s *Session) SetSweepConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

// TrackFrequency returns the frequency Track tunes to.
func (s *Session) TrackFrequency() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackFreq
}

// SetTrackFrequency changes the tracked frequency.
func (s *Session) SetTrackFrequency(freq int64) error {
	if freq <= 0 {
		return fmt.Errorf("sweep: track frequency must be positive: %d", freq)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackFreq = freq
	return nil
}

// RSSIRef returns the RSSI reference in dBm used for distance estimation.
func (s *Session) RSSIRef() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rssiRef
}

// SetRSSIRef changes the RSSI reference used for distance estimation.
func (s *Session) SetRSSIRef(refDBm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rssiRef = refDBm
}

// Sweep runs one full sweep and returns the stitched spectrum with detected
// peaks. A failed capture skips that step and the sweep continues; only
// cancellation aborts the run. When every step fails the result carries empty
// arrays, which is valid data for "nothing received".
func (s *Session) Sweep(ctx context.Context) (spectrum.SweepResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	cfg := s.SweepConfig()
	steps := cfg.Steps()

	segments := make([]spectrum.Segment, 0, len(steps))
	for i, freq := range steps {
		if err := ctx.Err(); err != nil {
			return spectrum.SweepResult{}, err
		}

		segments = append(segments, s.captureSegment(ctx, freq))

		if i < len(steps)-1 && cfg.DwellTime > 0 {
			if err := wait(ctx, cfg.DwellTime); err != nil {
				return spectrum.SweepResult{}, err
			}
		}
	}

	stitched := s.stitcher.Stitch(segments)
	if stitched.Empty() {
		s.logger.Warn("sweep produced no data", slog.Int("steps", len(steps)))
	}

	return spectrum.SweepResult{
		Timestamp:       time.Now().UTC(),
		StartFrequency:  cfg.StartFrequency,
		EndFrequency:    cfg.EndFrequency,
		Frequencies:     stitched.Frequencies,
		PowerSpectrumDB: stitched.PowerDB,
		Peaks:           dsp.DetectPeaks(stitched.Frequencies, stitched.PowerDB, s.fft.peakConfig()),
	}, nil
}

// captureSegment acquires and estimates one sweep step. Failures degrade to
// a failed segment instead of aborting the sweep, unless caused by
// cancellation.
func (s *Session) captureSegment(ctx context.Context, freq int64) spectrum.Segment {
	failed := spectrum.Segment{CenterFrequency: freq}

	samples, err := s.capturer.Capture(ctx, freq, s.fft.Size)
	if err != nil {
		s.logger.Warn("capture failed, skipping step",
			slog.Int64("frequency", freq), slog.Any("error", err))
		return failed
	}

	seg, err := s.sweepEst.Estimate(samples, freq)
	if err != nil {
		s.logger.Warn("estimation failed, skipping step",
			slog.Int64("frequency", freq), slog.Any("error", err))
		return failed
	}
	return seg
}

// Track performs one capture at the tracked frequency and derives the peak
// RSSI and a free-space distance estimate from the calibrated spectrum.
func (s *Session) Track(ctx context.Context) (spectrum.LiveResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	freq, ref := s.trackFreq, s.rssiRef
	s.mu.Unlock()

	samples, err := s.capturer.Capture(ctx, freq, s.fft.Size)
	if err != nil {
		return spectrum.LiveResult{}, fmt.Errorf("sweep: capturing at %d Hz: %w", freq, err)
	}

	seg, err := s.trackEst.Estimate(samples, freq)
	if err != nil {
		return spectrum.LiveResult{}, err
	}

	peak := seg.PowerDB[0]
	for _, p := range seg.PowerDB[1:] {
		if p > peak {
			peak = p
		}
	}

	return spectrum.LiveResult{
		Timestamp:       time.Now().UTC(),
		CenterFrequency: freq,
		Frequencies:     seg.Frequencies,
		FFTDataDB:       seg.PowerDB,
		PeakRSSIDBm:     peak,
		DistanceM:       Distance(peak, ref),
		RSSIRefDBm:      ref,
	}, nil
}

// Distance estimates the transmitter distance in meters from its received
// power, assuming free-space path loss against a reference RSSI measured at
// one meter. A peak equal to the reference is exactly one meter away. The
// estimate is a rough approximation and degrades quickly in multipath
// environments.
func Distance(peakDBm, refDBm float64) float64 {
	return math.Pow(10, (peakDBm-refDBm)/20)
}

// wait sleeps for the dwell interval or until the context is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
