// Package sdr abstracts IQ sample acquisition behind a small capture
// capability, so that the scanning pipeline never depends on a concrete
// radio. Shipped implementations replay recorded captures from a file and
// synthesize test signals.
package sdr

import (
	"context"
	"fmt"
)

// Capturer acquires a block of complex baseband samples with the receiver
// tuned to centerFreq. Implementations handle their own tuning and settling;
// a returned error means this capture failed, not that the source is dead.
type Capturer interface {
	Capture(ctx context.Context, centerFreq int64, numSamples int) ([]complex128, error)
}

// CaptureFunc adapts a plain function to the Capturer interface.
type CaptureFunc func(ctx context.Context, centerFreq int64, numSamples int) ([]complex128, error)

// Capture calls f.
func (f CaptureFunc) Capture(ctx context.Context, centerFreq int64, numSamples int) ([]complex128, error) {
	return f(ctx, centerFreq, numSamples)
}

// Config holds receiver hardware parameters. It is passed through to capture
// sources by value and never mutated by the pipeline.
type Config struct {
	SampleRate   int64   `yaml:"sample_rate"`   // Samples per second
	RFBandwidth  int64   `yaml:"rf_bandwidth"`  // Analog filter bandwidth in Hz
	HardwareGain float64 `yaml:"hardware_gain"` // Receiver gain in dB
}

// Validate checks hardware parameters and returns a descriptive error when
// the configuration is unusable.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sdr.Config: sample rate must be positive: %d", c.SampleRate)
	}
	if c.RFBandwidth <= 0 {
		return fmt.Errorf("sdr.Config: RF bandwidth must be positive: %d", c.RFBandwidth)
	}
	if c.RFBandwidth > c.SampleRate {
		return fmt.Errorf("sdr.Config: RF bandwidth %d exceeds sample rate %d", c.RFBandwidth, c.SampleRate)
	}
	return nil
}
