package dsp

import (
	"sort"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

// PeakConfig tunes adaptive peak detection over a power spectrum.
type PeakConfig struct {
	// MinHeightDB is the absolute power floor: bins below it are never peaks.
	MinHeightDB float64

	// ThresholdDB is the minimum prominence of a peak above the mean power of
	// its flanking bands.
	ThresholdDB float64

	// WindowSizeDivisor scales the local-maximum window with the spectrum
	// length: window = len / divisor, but never below MinWindowSize.
	WindowSizeDivisor int

	// MinWindowSize is the smallest local-maximum half window in bins.
	MinWindowSize int

	// MaxPeaks caps the number of returned peaks. Zero or negative means
	// unlimited.
	MaxPeaks int

	// CenterFrequency and Bandwidth clip candidates to the band
	// center +/- bandwidth/2 when Bandwidth is positive.
	CenterFrequency float64
	Bandwidth       float64
}

// DetectPeaks finds prominent local maxima in the power spectrum. The window
// adapts to the spectrum length so that narrow captures and wide stitched
// sweeps use comparable relative resolution. The result is sorted by power,
// strongest first. Pure function, no retained state.
func DetectPeaks(freqs, power []float64, cfg PeakConfig) []spectrum.Peak {
	if len(freqs) != len(power) || len(power) == 0 {
		return nil
	}

	w := cfg.MinWindowSize
	if cfg.WindowSizeDivisor > 0 {
		if adaptive := len(power) / cfg.WindowSizeDivisor; adaptive > w {
			w = adaptive
		}
	}
	if w < 1 {
		w = 1
	}

	var lo, hi float64
	if cfg.Bandwidth > 0 {
		lo = cfg.CenterFrequency - cfg.Bandwidth/2
		hi = cfg.CenterFrequency + cfg.Bandwidth/2
	}

	var peaks []spectrum.Peak
	for i := w; i < len(power)-w; i++ {
		if power[i] < cfg.MinHeightDB {
			continue
		}
		if !isWindowMax(power, i, w) {
			continue
		}
		if power[i]-flankingMean(power, i, w) < cfg.ThresholdDB {
			continue
		}
		if cfg.Bandwidth > 0 && (freqs[i] < lo || freqs[i] > hi) {
			continue
		}
		peaks = append(peaks, spectrum.Peak{Frequency: freqs[i], PowerDB: power[i]})
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return peaks[a].PowerDB > peaks[b].PowerDB
	})
	if cfg.MaxPeaks > 0 && len(peaks) > cfg.MaxPeaks {
		peaks = peaks[:cfg.MaxPeaks]
	}
	return peaks
}

// isWindowMax reports whether power[i] is the maximum over the closed window
// [i-w, i+w]. The first index wins ties, so a flat-topped peak yields a single
// detection.
func isWindowMax(power []float64, i, w int) bool {
	for j := i - w; j <= i+w; j++ {
		if j == i {
			continue
		}
		if power[j] > power[i] || (power[j] == power[i] && j < i) {
			return false
		}
	}
	return true
}

// flankingMean returns the mean power of the bands [i-2w, i-w) and
// [i+w, i+2w), clipped to the spectrum bounds. Used as the local noise
// reference for the prominence check.
func flankingMean(power []float64, i, w int) float64 {
	var sum float64
	var n int

	lo := i - 2*w
	if lo < 0 {
		lo = 0
	}
	for j := lo; j < i-w; j++ {
		sum += power[j]
		n++
	}

	hi := i + 2*w
	if hi > len(power) {
		hi = len(power)
	}
	for j := i + w; j < hi; j++ {
		sum += power[j]
		n++
	}

	if n == 0 {
		return power[i]
	}
	return sum / float64(n)
}
