package dsp

import (
	"math"
	"sort"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

// defaultSmoothingKernel is the box filter width applied to a stitched
// spectrum. Must be odd.
const defaultSmoothingKernel = 5

// Stitcher assembles per-step PSD segments into one continuous spectrum:
// it equalizes segment gain against the first usable segment, merges the
// frequency axes in order and applies a light box smoothing pass.
type Stitcher struct {
	kernel int
}

// NewStitcher creates a stitcher with the default smoothing kernel.
func NewStitcher() *Stitcher {
	return &Stitcher{kernel: defaultSmoothingKernel}
}

// Stitch merges ordered segments into a single spectrum. Failed segments are
// skipped. An empty or all-failed input yields an Empty result, which is a
// valid outcome rather than an error.
func (s *Stitcher) Stitch(segments []spectrum.Segment) spectrum.Stitched {
	usable := segments[:0:0]
	for _, seg := range segments {
		if seg.OK && len(seg.PowerDB) > 0 {
			usable = append(usable, seg)
		}
	}
	if len(usable) == 0 {
		return spectrum.Stitched{}
	}

	corrections := gainCorrections(usable)

	var out spectrum.Stitched
	for i, seg := range usable {
		offset := 10 * math.Log10(corrections[i])

		freqs, power := seg.Frequencies, seg.PowerDB
		if n := len(out.Frequencies); n > 0 {
			// Keep the earlier segment's samples where bandwidths overlap:
			// append only the tail strictly above what we already cover.
			last := out.Frequencies[n-1]
			from := sort.SearchFloat64s(freqs, last)
			for from < len(freqs) && freqs[from] <= last {
				from++
			}
			freqs, power = freqs[from:], power[from:]
		}

		out.Frequencies = append(out.Frequencies, freqs...)
		for _, p := range power {
			out.PowerDB = append(out.PowerDB, p+offset)
		}
	}

	out.PowerDB = s.smooth(out.PowerDB)
	return out
}

// gainCorrections returns one linear multiplier per segment, equalizing each
// segment's median power against the first segment. corrections[0] is
// exactly 1.
func gainCorrections(segments []spectrum.Segment) []float64 {
	corrections := make([]float64, len(segments))
	corrections[0] = 1

	ref := medianLinearPower(segments[0].PowerDB)
	for i := 1; i < len(segments); i++ {
		m := medianLinearPower(segments[i].PowerDB)
		if m <= 0 {
			corrections[i] = 1
			continue
		}
		corrections[i] = ref / m
	}
	return corrections
}

// medianLinearPower converts dB values to linear power and returns their
// median.
func medianLinearPower(db []float64) float64 {
	lin := make([]float64, len(db))
	for i, v := range db {
		lin[i] = math.Pow(10, v/10)
	}
	sort.Float64s(lin)

	n := len(lin)
	if n%2 == 1 {
		return lin[n/2]
	}
	return (lin[n/2-1] + lin[n/2]) / 2
}

// smooth applies a centered box filter of the configured kernel width. The
// spectrum is returned unchanged when it is too short to smooth meaningfully,
// and the half-kernel of samples at each edge always keeps its original
// values.
func (s *Stitcher) smooth(power []float64) []float64 {
	if len(power) <= 2*s.kernel {
		return power
	}

	half := s.kernel / 2
	out := make([]float64, len(power))
	copy(out, power)

	for i := half; i < len(power)-half; i++ {
		var sum float64
		for j := i - half; j <= i+half; j++ {
			sum += power[j]
		}
		out[i] = sum / float64(s.kernel)
	}
	return out
}
