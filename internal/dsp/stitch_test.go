package dsp

import (
	"math"
	"testing"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

func flatSegment(center int64, startFreq, step float64, n int, levelDB float64) spectrum.Segment {
	freqs := make([]float64, n)
	power := make([]float64, n)
	for i := range freqs {
		freqs[i] = startFreq + float64(i)*step
		power[i] = levelDB
	}
	return spectrum.Segment{CenterFrequency: center, Frequencies: freqs, PowerDB: power, OK: true}
}

func TestStitchEmptyInput(t *testing.T) {
	s := NewStitcher()

	tests := []struct {
		name     string
		segments []spectrum.Segment
	}{
		{name: "nil"},
		{name: "empty slice", segments: []spectrum.Segment{}},
		{name: "all failed", segments: []spectrum.Segment{
			{CenterFrequency: 100e6},
			{CenterFrequency: 120e6},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Stitch(tt.segments); !got.Empty() {
				t.Errorf("expected empty result, got %d points", len(got.Frequencies))
			}
		})
	}
}

// A single segment must pass through untouched: its own gain correction is
// exactly 1 and a short spectrum is too small to smooth.
func TestStitchSingleSegmentIdentity(t *testing.T) {
	s := NewStitcher()
	seg := flatSegment(100_000_000, 99e6, 1e3, 8, -72.5)

	got := s.Stitch([]spectrum.Segment{seg})
	if len(got.Frequencies) != len(seg.Frequencies) {
		t.Fatalf("got %d points, want %d", len(got.Frequencies), len(seg.Frequencies))
	}
	for i := range seg.PowerDB {
		if got.PowerDB[i] != seg.PowerDB[i] {
			t.Errorf("bin %d = %f, want %f", i, got.PowerDB[i], seg.PowerDB[i])
		}
		if got.Frequencies[i] != seg.Frequencies[i] {
			t.Errorf("freq %d = %f, want %f", i, got.Frequencies[i], seg.Frequencies[i])
		}
	}
}

func TestStitchMonotonicAxis(t *testing.T) {
	s := NewStitcher()

	tests := []struct {
		name     string
		segments []spectrum.Segment
	}{
		{
			name: "adjacent no overlap",
			segments: []spectrum.Segment{
				flatSegment(100e6, 99e6, 1e5, 20, -70),
				flatSegment(102e6, 101e6, 1e5, 20, -70),
			},
		},
		{
			name: "half bandwidth overlap",
			segments: []spectrum.Segment{
				flatSegment(100e6, 99e6, 1e5, 20, -70),
				flatSegment(101e6, 100e6, 1e5, 20, -70),
				flatSegment(102e6, 101e6, 1e5, 20, -70),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Stitch(tt.segments)
			if got.Empty() {
				t.Fatal("unexpected empty result")
			}
			for i := 1; i < len(got.Frequencies); i++ {
				if got.Frequencies[i] <= got.Frequencies[i-1] {
					t.Fatalf("axis not strictly increasing at %d: %f then %f",
						i, got.Frequencies[i-1], got.Frequencies[i])
				}
			}
			if len(got.PowerDB) != len(got.Frequencies) {
				t.Errorf("power/axis length mismatch: %d vs %d", len(got.PowerDB), len(got.Frequencies))
			}
		})
	}
}

// On overlap the earlier segment's samples survive.
func TestStitchOverlapEarlierWins(t *testing.T) {
	s := NewStitcher()
	first := flatSegment(100e6, 99e6, 1e5, 4, -60)
	second := flatSegment(100e6, 99.1e6, 1e5, 4, -60)

	got := s.Stitch([]spectrum.Segment{first, second})

	// first covers 99.0..99.3 MHz, second adds only its 99.4 MHz tail bin.
	wantFreqs := []float64{99.0e6, 99.1e6, 99.2e6, 99.3e6, 99.4e6}
	if len(got.Frequencies) != len(wantFreqs) {
		t.Fatalf("got %d points, want %d: %v", len(got.Frequencies), len(wantFreqs), got.Frequencies)
	}
	for i, f := range wantFreqs {
		if got.Frequencies[i] != f {
			t.Errorf("freq %d = %f, want %f", i, got.Frequencies[i], f)
		}
	}
}

func TestGainCorrections(t *testing.T) {
	segments := []spectrum.Segment{
		flatSegment(100e6, 99e6, 1e5, 8, -70),
		flatSegment(102e6, 101e6, 1e5, 8, -60), // 10 dB hotter
		flatSegment(104e6, 103e6, 1e5, 8, -70),
	}

	corrections := gainCorrections(segments)
	if corrections[0] != 1 {
		t.Fatalf("corrections[0] = %f, want exactly 1", corrections[0])
	}

	// A flat segment 10 dB above the reference needs a 0.1 linear multiplier.
	if got := corrections[1]; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("corrections[1] = %f, want 0.1", got)
	}
	if got := corrections[2]; math.Abs(got-1) > 1e-9 {
		t.Errorf("corrections[2] = %f, want 1", got)
	}
}

// Gain equalization flattens a level step between segments.
func TestStitchEqualizesSegmentGain(t *testing.T) {
	s := NewStitcher()
	segments := []spectrum.Segment{
		flatSegment(100e6, 99e6, 1e5, 8, -70),
		flatSegment(102e6, 101e6, 1e5, 8, -55),
	}

	got := s.Stitch(segments)
	for i, p := range got.PowerDB {
		if math.Abs(p-(-70)) > 1e-9 {
			t.Errorf("bin %d = %f, want -70 after equalization", i, p)
		}
	}
}

func TestStitchSkipsFailedSegments(t *testing.T) {
	s := NewStitcher()
	segments := []spectrum.Segment{
		flatSegment(100e6, 99e6, 1e5, 8, -70),
		{CenterFrequency: 102e6}, // failed capture
		flatSegment(104e6, 103e6, 1e5, 8, -70),
	}

	got := s.Stitch(segments)
	if len(got.Frequencies) != 16 {
		t.Fatalf("got %d points, want 16", len(got.Frequencies))
	}
}

func TestSmooth(t *testing.T) {
	s := NewStitcher()

	t.Run("short input unchanged", func(t *testing.T) {
		in := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		got := s.smooth(in)
		for i := range in {
			if got[i] != in[i] {
				t.Fatalf("short input modified at %d", i)
			}
		}
	})

	t.Run("edges preserved", func(t *testing.T) {
		in := make([]float64, 32)
		for i := range in {
			in[i] = float64(i % 7)
		}
		got := s.smooth(in)

		half := s.kernel / 2
		for i := 0; i < half; i++ {
			if got[i] != in[i] || got[len(in)-1-i] != in[len(in)-1-i] {
				t.Fatalf("edge sample %d modified", i)
			}
		}
	})

	t.Run("impulse spread", func(t *testing.T) {
		in := make([]float64, 32)
		in[16] = 5
		got := s.smooth(in)

		if got[16] != 1 {
			t.Errorf("center = %f, want 1 (impulse averaged over kernel)", got[16])
		}
		if got[14] != 1 || got[18] != 1 {
			t.Errorf("kernel neighbors = %f/%f, want 1", got[14], got[18])
		}
		if got[10] != 0 {
			t.Errorf("far bin = %f, want 0", got[10])
		}
	})
}

func TestMedianLinearPower(t *testing.T) {
	tests := []struct {
		name string
		db   []float64
		want float64
	}{
		{name: "odd count", db: []float64{0, 10, 20}, want: 10},           // median of 1, 10, 100
		{name: "even count", db: []float64{0, 0, 10, 10}, want: 5.5},      // (1+10)/2
		{name: "single value", db: []float64{-30}, want: math.Pow(10, -3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianLinearPower(tt.db); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("medianLinearPower = %g, want %g", got, tt.want)
			}
		})
	}
}
