package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

const (
	// AxisBaseband leaves DC at bin 0, the layout used during sweeps where
	// segments are stitched by frequency afterwards.
	AxisBaseband AxisMode = iota

	// AxisCentered shifts DC to the middle bin and calibrates power to dBm
	// against a 50 Ohm reference, the layout used for live single-frequency
	// display.
	AxisCentered
)

// powerFloor clamps the normalized PSD before the log conversion so that
// silent bins produce a finite dB value instead of -Inf.
const powerFloor = 1e-12

// dbmOffset converts normalized power in dBW to dBm assuming a 50 Ohm
// impedance: +30 for watts to milliwatts, -10*log10(50) for V^2/R.
var dbmOffset = 30 - 10*math.Log10(50)

// ErrInvalidInput is returned for malformed estimator input or configuration.
var ErrInvalidInput = errors.New("invalid input")

// AxisMode selects the frequency axis convention of an estimated segment.
type AxisMode int

// Estimator converts one capture buffer of complex baseband samples into a
// power spectral density segment. The analysis window and all scratch buffers
// are allocated once and reused, so a single Estimator must not be shared
// across concurrently running sweeps.
type Estimator struct {
	fftSize    int
	sampleRate int64
	mode       AxisMode
	backend    Transformer

	win    []float64 // Hann coefficients, pure function of fftSize
	winSum float64

	// Scratch, reused across Estimate calls.
	input  []complex128
	output []complex128
}

// NewEstimator creates an estimator for the given FFT size and sample rate.
// The Hann window is precomputed here and shared read-only by every call.
func NewEstimator(backend Transformer, sampleRate int64, mode AxisMode) (*Estimator, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: estimator requires a transform backend", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive: %d", ErrInvalidInput, sampleRate)
	}

	fftSize := backend.Size()
	win := window.Generate(window.TypeHann, fftSize, window.WithPeriodic())
	if len(win) != fftSize {
		return nil, fmt.Errorf("%w: generating %d-point Hann window", ErrInvalidInput, fftSize)
	}

	var sum float64
	for _, w := range win {
		sum += w
	}

	return &Estimator{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		mode:       mode,
		backend:    backend,
		win:        win,
		winSum:     sum,
		input:      make([]complex128, fftSize),
		output:     make([]complex128, fftSize),
	}, nil
}

// FFTSize returns the transform size of the estimator.
func (e *Estimator) FFTSize() int { return e.fftSize }

// Estimate computes the PSD segment for one capture buffer tuned to
// centerFreq. Samples beyond the FFT size are dropped, short buffers are
// zero-padded at the tail. The result always has exactly FFTSize points and
// a strictly increasing frequency axis spanning centerFreq +/- sampleRate/2.
func (e *Estimator) Estimate(samples []complex128, centerFreq int64) (spectrum.Segment, error) {
	if len(samples) == 0 {
		return spectrum.Segment{}, fmt.Errorf("%w: empty capture buffer", ErrInvalidInput)
	}

	n := len(samples)
	if n > e.fftSize {
		n = e.fftSize
	}
	for i := 0; i < n; i++ {
		e.input[i] = samples[i] * complex(e.win[i], 0)
	}
	for i := n; i < e.fftSize; i++ {
		e.input[i] = 0
	}

	if err := e.backend.Forward(e.output, e.input); err != nil {
		return spectrum.Segment{}, err
	}

	psd := make([]float64, e.fftSize)
	norm := float64(e.sampleRate) * e.winSum
	for i, c := range e.output {
		re, im := real(c), imag(c)
		p := (re*re + im*im) / norm
		if p < powerFloor {
			p = powerFloor
		}
		psd[i] = 10 * math.Log10(p)
	}

	if e.mode == AxisCentered {
		fftShift(psd)
		for i := range psd {
			psd[i] += dbmOffset
		}
	}

	return spectrum.Segment{
		CenterFrequency: centerFreq,
		Frequencies:     e.frequencyAxis(centerFreq),
		PowerDB:         psd,
		OK:              true,
	}, nil
}

// frequencyAxis returns fftSize equally spaced points covering one receiver
// bandwidth: [centerFreq - rate/2, centerFreq + rate/2), step rate/fftSize.
func (e *Estimator) frequencyAxis(centerFreq int64) []float64 {
	start := float64(centerFreq) - float64(e.sampleRate)/2
	step := float64(e.sampleRate) / float64(e.fftSize)

	freqs := make([]float64, e.fftSize)
	for i := range freqs {
		freqs[i] = start + float64(i)*step
	}
	return freqs
}

// fftShift rotates the spectrum in place so that the DC bin moves from index
// 0 to index len/2, for even and odd lengths alike.
func fftShift(v []float64) {
	half := (len(v) + 1) / 2
	tmp := make([]float64, half)
	copy(tmp, v[:half])
	copy(v, v[half:])
	copy(v[len(v)-half:], tmp)
}
