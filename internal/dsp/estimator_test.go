package dsp

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func newTestTransformer(t *testing.T, backend Backend, size int) Transformer {
	t.Helper()

	tr, err := NewTransformer(backend, size)
	if err != nil {
		t.Fatalf("NewTransformer(%q, %d) error: %v", backend, size, err)
	}
	return tr
}

func TestNewTransformer(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		size    int
		wantErr bool
	}{
		{name: "fourier", backend: BackendFourier, size: 256},
		{name: "plan", backend: BackendPlan, size: 256},
		{name: "default backend", backend: "", size: 64},
		{name: "unknown backend", backend: "cuda", size: 256, wantErr: true},
		{name: "size too small", backend: BackendFourier, size: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer(tt.backend, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tr.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", tr.Size(), tt.size)
			}
		})
	}
}

func TestTransformerForward(t *testing.T) {
	const size = 64

	for _, backend := range []Backend{BackendFourier, BackendPlan} {
		t.Run(string(backend), func(t *testing.T) {
			tr := newTestTransformer(t, backend, size)

			src := make([]complex128, size)
			for i := range src {
				src[i] = 1
			}
			dst := make([]complex128, size)
			if err := tr.Forward(dst, src); err != nil {
				t.Fatalf("Forward() error: %v", err)
			}

			// A constant input concentrates all energy in the DC bin.
			if cmplx.Abs(dst[0]-complex(size, 0)) > 1e-9 {
				t.Errorf("DC bin = %v, want %d", dst[0], size)
			}
			for i := 1; i < size; i++ {
				if cmplx.Abs(dst[i]) > 1e-9 {
					t.Errorf("bin %d = %v, want 0", i, dst[i])
				}
			}

			if err := tr.Forward(dst[:size-1], src); err == nil {
				t.Error("expected error for short dst")
			}
		})
	}
}

func TestNewEstimator(t *testing.T) {
	tr := newTestTransformer(t, BackendFourier, 128)

	tests := []struct {
		name       string
		backend    Transformer
		sampleRate int64
		wantErr    bool
	}{
		{name: "valid", backend: tr, sampleRate: 2_000_000},
		{name: "nil backend", backend: nil, sampleRate: 2_000_000, wantErr: true},
		{name: "zero sample rate", backend: tr, sampleRate: 0, wantErr: true},
		{name: "negative sample rate", backend: tr, sampleRate: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEstimator(tt.backend, tt.sampleRate, AxisBaseband)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEstimateShapeAndAxis(t *testing.T) {
	const (
		fftSize    = 256
		sampleRate = 2_000_000
		centerFreq = 100_000_000
	)

	est, err := NewEstimator(newTestTransformer(t, BackendFourier, fftSize), sampleRate, AxisBaseband)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		samples int
	}{
		{name: "exact length", samples: fftSize},
		{name: "short buffer zero padded", samples: fftSize / 2},
		{name: "long buffer truncated", samples: fftSize * 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := est.Estimate(make([]complex128, tt.samples), centerFreq)
			if err != nil {
				t.Fatalf("Estimate() error: %v", err)
			}

			if !seg.OK {
				t.Error("segment not marked OK")
			}
			if len(seg.Frequencies) != fftSize || len(seg.PowerDB) != fftSize {
				t.Fatalf("got %d/%d points, want %d", len(seg.Frequencies), len(seg.PowerDB), fftSize)
			}

			wantStart := float64(centerFreq) - float64(sampleRate)/2
			if seg.Frequencies[0] != wantStart {
				t.Errorf("axis start = %f, want %f", seg.Frequencies[0], wantStart)
			}

			step := float64(sampleRate) / fftSize
			for i := 1; i < len(seg.Frequencies); i++ {
				if d := seg.Frequencies[i] - seg.Frequencies[i-1]; math.Abs(d-step) > 1e-6 {
					t.Fatalf("axis step at %d = %f, want %f", i, d, step)
				}
			}
		})
	}
}

func TestEstimateEmptyInput(t *testing.T) {
	est, err := NewEstimator(newTestTransformer(t, BackendFourier, 64), 1_000_000, AxisBaseband)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := est.Estimate(nil, 100_000_000); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEstimateSilenceHitsFloor(t *testing.T) {
	est, err := NewEstimator(newTestTransformer(t, BackendFourier, 64), 1_000_000, AxisBaseband)
	if err != nil {
		t.Fatal(err)
	}

	seg, err := est.Estimate(make([]complex128, 64), 100_000_000)
	if err != nil {
		t.Fatal(err)
	}

	want := 10 * math.Log10(powerFloor)
	for i, p := range seg.PowerDB {
		if math.IsInf(p, 0) || math.IsNaN(p) {
			t.Fatalf("bin %d is not finite: %f", i, p)
		}
		if p != want {
			t.Errorf("bin %d = %f, want floor %f", i, p, want)
		}
	}
}

// A complex exponential at a bin-aligned offset must land exactly on its bin
// when the axis is centered, and both backends must agree on where.
func TestEstimateCenteredToneLocation(t *testing.T) {
	const (
		fftSize    = 512
		sampleRate = 2_048_000
		centerFreq = 433_000_000
		toneOffset = 128_000 // 32 bins above center
	)

	samples := make([]complex128, fftSize)
	for i := range samples {
		phase := 2 * math.Pi * toneOffset * float64(i) / sampleRate
		samples[i] = cmplx.Exp(complex(0, phase))
	}

	for _, backend := range []Backend{BackendFourier, BackendPlan} {
		t.Run(string(backend), func(t *testing.T) {
			est, err := NewEstimator(newTestTransformer(t, backend, fftSize), sampleRate, AxisCentered)
			if err != nil {
				t.Fatal(err)
			}

			seg, err := est.Estimate(samples, centerFreq)
			if err != nil {
				t.Fatal(err)
			}

			maxIdx := 0
			for i, p := range seg.PowerDB {
				if p > seg.PowerDB[maxIdx] {
					maxIdx = i
				}
			}

			binWidth := float64(sampleRate) / fftSize
			wantFreq := float64(centerFreq) + toneOffset
			if got := seg.Frequencies[maxIdx]; math.Abs(got-wantFreq) > binWidth/2 {
				t.Errorf("peak at %f Hz, want %f Hz (bin width %f)", got, wantFreq, binWidth)
			}
		})
	}
}

func TestFFTShift(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "even", in: []float64{0, 1, 2, 3, 4, 5}, want: []float64{3, 4, 5, 0, 1, 2}},
		{name: "odd", in: []float64{0, 1, 2, 3, 4}, want: []float64{3, 4, 0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fftShift(tt.in)
			for i := range tt.want {
				if tt.in[i] != tt.want[i] {
					t.Fatalf("fftShift = %v, want %v", tt.in, tt.want)
				}
			}

			// DC must land on the middle bin regardless of parity.
			if mid := len(tt.in) / 2; tt.in[mid] != 0 {
				t.Errorf("DC bin at index %d = %f, want 0", mid, tt.in[mid])
			}
		})
	}
}
