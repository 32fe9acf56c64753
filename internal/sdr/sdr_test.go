package sdr

import (
	"context"
	"encoding/binary"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{SampleRate: 2_000_000, RFBandwidth: 2_000_000, HardwareGain: 40}},
		{name: "zero sample rate", cfg: Config{RFBandwidth: 2_000_000}, wantErr: true},
		{name: "zero bandwidth", cfg: Config{SampleRate: 2_000_000}, wantErr: true},
		{name: "bandwidth exceeds rate", cfg: Config{SampleRate: 1_000_000, RFBandwidth: 2_000_000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCaptureFunc(t *testing.T) {
	var gotFreq int64
	fn := CaptureFunc(func(_ context.Context, centerFreq int64, n int) ([]complex128, error) {
		gotFreq = centerFreq
		return make([]complex128, n), nil
	})

	samples, err := fn.Capture(context.Background(), 433_000_000, 64)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 64 || gotFreq != 433_000_000 {
		t.Errorf("Capture passed through len=%d freq=%d", len(samples), gotFreq)
	}
}

func TestSimulatedCapture(t *testing.T) {
	cfg := Config{SampleRate: 1_000_000, RFBandwidth: 1_000_000}
	emitters := []Emitter{
		{Frequency: 100_100_000, Amplitude: 1}, // 100 kHz above center
		{Frequency: 200_000_000, Amplitude: 1}, // far out of band
	}

	src, err := NewSimulated(cfg, emitters, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := src.Capture(context.Background(), 100_000_000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1000 {
		t.Fatalf("got %d samples, want 1000", len(samples))
	}

	// With noise disabled only the in-band tone contributes, so every sample
	// is a unit phasor rotating at the 100 kHz offset.
	for i, s := range samples {
		if math.Abs(cmplx.Abs(s)-1) > 1e-9 {
			t.Fatalf("sample %d magnitude %f, want 1", i, cmplx.Abs(s))
		}
	}
	want := cmplx.Exp(complex(0, 2*math.Pi*100_000/1_000_000*5))
	if cmplx.Abs(samples[5]-want) > 1e-9 {
		t.Errorf("sample 5 = %v, want %v", samples[5], want)
	}
}

func TestSimulatedHardwareGain(t *testing.T) {
	cfg := Config{SampleRate: 1_000_000, RFBandwidth: 1_000_000, HardwareGain: 20}
	src, err := NewSimulated(cfg, []Emitter{{Frequency: 100_100_000, Amplitude: 1}}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := src.Capture(context.Background(), 100_000_000, 100)
	if err != nil {
		t.Fatal(err)
	}

	// 20 dB of front-end gain scales the unit tone by a factor of 10.
	for i, s := range samples {
		if math.Abs(cmplx.Abs(s)-10) > 1e-9 {
			t.Fatalf("sample %d magnitude %f, want 10", i, cmplx.Abs(s))
		}
	}
}

func TestSimulatedPhaseContinuity(t *testing.T) {
	cfg := Config{SampleRate: 1_000_000, RFBandwidth: 1_000_000}
	src, err := NewSimulated(cfg, []Emitter{{Frequency: 100_050_000, Amplitude: 1}}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	first, err := src.Capture(context.Background(), 100_000_000, 100)
	if err != nil {
		t.Fatal(err)
	}
	second, err := src.Capture(context.Background(), 100_000_000, 100)
	if err != nil {
		t.Fatal(err)
	}

	// The second buffer must continue where the first left off: the phase step
	// between first[99] and second[0] equals the per-sample step.
	step := cmplx.Phase(first[1] / first[0])
	joint := cmplx.Phase(second[0] / first[99])
	if math.Abs(joint-step) > 1e-9 {
		t.Errorf("phase discontinuity across captures: %f vs %f", joint, step)
	}
}

func TestSimulatedCancelledContext(t *testing.T) {
	cfg := Config{SampleRate: 1_000_000, RFBandwidth: 1_000_000}
	src, err := NewSimulated(cfg, nil, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Capture(ctx, 100_000_000, 10); err == nil {
		t.Fatal("expected context error")
	}
}

func writeIQFile(t *testing.T, samples []complex64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.iq")
	buf := make([]byte, len(samples)*8)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(imag(s)))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIQFileReplay(t *testing.T) {
	recorded := []complex64{
		complex(0.1, -0.2),
		complex(0.3, 0.4),
		complex(-0.5, 0.6),
	}
	src, err := OpenIQFile(writeIQFile(t, recorded))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	// Request more samples than recorded: replay must wrap around.
	samples, err := src.Capture(context.Background(), 0, 7)
	if err != nil {
		t.Fatal(err)
	}

	for i, s := range samples {
		want := recorded[i%len(recorded)]
		if real(s) != float64(real(want)) || imag(s) != float64(imag(want)) {
			t.Fatalf("sample %d = %v, want %v", i, s, want)
		}
	}
}

func TestOpenIQFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := OpenIQFile(filepath.Join(t.TempDir(), "missing.iq")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.iq")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenIQFile(path); err == nil {
			t.Fatal("expected error")
		}
	})
}
