package sweep

import (
	"fmt"
	"time"

	"github.com/roman-kulish/radio-spectrum/internal/dsp"
)

// Config defines one frequency sweep: tune to every center frequency from
// StartFrequency to EndFrequency inclusive, StepFrequency apart, dwelling
// DwellTime between retunes. A sweep uses the Config it started with even if
// the session is reconfigured mid-flight.
type Config struct {
	StartFrequency int64         // First center frequency in Hz
	EndFrequency   int64         // Last center frequency in Hz, inclusive
	StepFrequency  int64         // Tuning increment in Hz
	DwellTime      time.Duration // Settling wait between steps
}

// Validate checks sweep boundaries. A single-step sweep (end == start) is
// valid and needs no step.
func (c Config) Validate() error {
	if c.StartFrequency <= 0 {
		return fmt.Errorf("sweep.Config: start frequency must be positive: %d", c.StartFrequency)
	}
	if c.EndFrequency < c.StartFrequency {
		return fmt.Errorf("sweep.Config: end frequency %d below start frequency %d", c.EndFrequency, c.StartFrequency)
	}
	if c.EndFrequency > c.StartFrequency && c.StepFrequency <= 0 {
		return fmt.Errorf("sweep.Config: step frequency must be positive: %d", c.StepFrequency)
	}
	if c.DwellTime < 0 {
		return fmt.Errorf("sweep.Config: dwell time must not be negative: %s", c.DwellTime)
	}
	return nil
}

// Steps returns every center frequency of the sweep in ascending order.
func (c Config) Steps() []int64 {
	if c.EndFrequency == c.StartFrequency {
		return []int64{c.StartFrequency}
	}

	var steps []int64
	for f := c.StartFrequency; f <= c.EndFrequency; f += c.StepFrequency {
		steps = append(steps, f)
	}
	return steps
}

// FFTConfig holds spectral analysis and peak detection parameters shared by
// sweep and tracking modes.
type FFTConfig struct {
	Size              int         `yaml:"size"`                // FFT length in samples
	Backend           dsp.Backend `yaml:"backend"`             // Transform backend, empty selects the default
	MinPeakHeightDB   float64     `yaml:"min_peak_height_db"`  // Absolute peak power floor
	PeakThresholdDB   float64     `yaml:"peak_threshold_db"`   // Required prominence above flanking bands
	WindowSizeDivisor int         `yaml:"window_size_divisor"` // Adaptive peak window scale
	MinWindowSize     int         `yaml:"min_window_size"`     // Smallest peak window in bins
	MaxPeaksPerBand   int         `yaml:"max_peaks_per_band"`  // Peak count cap, 0 is unlimited
}

// Validate checks analysis parameters.
func (c FFTConfig) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("sweep.FFTConfig: FFT size must be at least 2: %d", c.Size)
	}
	if c.WindowSizeDivisor < 0 {
		return fmt.Errorf("sweep.FFTConfig: window size divisor must not be negative: %d", c.WindowSizeDivisor)
	}
	if c.MinWindowSize < 0 {
		return fmt.Errorf("sweep.FFTConfig: min window size must not be negative: %d", c.MinWindowSize)
	}
	if c.MaxPeaksPerBand < 0 {
		return fmt.Errorf("sweep.FFTConfig: max peaks per band must not be negative: %d", c.MaxPeaksPerBand)
	}
	return nil
}

// peakConfig translates analysis parameters into a detector configuration.
func (c FFTConfig) peakConfig() dsp.PeakConfig {
	return dsp.PeakConfig{
		MinHeightDB:       c.MinPeakHeightDB,
		ThresholdDB:       c.PeakThresholdDB,
		WindowSizeDivisor: c.WindowSizeDivisor,
		MinWindowSize:     c.MinWindowSize,
		MaxPeaks:          c.MaxPeaksPerBand,
	}
}
