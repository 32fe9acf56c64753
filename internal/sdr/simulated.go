package sdr

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sync"
)

// Emitter describes one synthetic transmitter the simulated source renders:
// a continuous tone at Frequency with the given complex amplitude.
type Emitter struct {
	Frequency int64   `yaml:"frequency"` // Absolute RF frequency in Hz
	Amplitude float64 `yaml:"amplitude"` // Linear amplitude, 1.0 is full scale
}

// Simulated synthesizes capture buffers containing the configured emitters
// plus white Gaussian noise, scaled by the configured hardware gain. Emitters
// outside the tuned bandwidth do not appear in the output. Phase is continuous
// across captures so consecutive buffers look like one coherent signal.
type Simulated struct {
	cfg      Config
	emitters []Emitter
	noise    float64
	gain     float64 // linear front-end gain from Config.HardwareGain

	mu     sync.Mutex
	rng    *rand.Rand
	sample int64 // running sample counter, drives phase continuity
}

// NewSimulated creates a simulated source. noiseAmplitude is the standard
// deviation of the per-component Gaussian noise; zero disables noise, which
// the deterministic tests rely on.
func NewSimulated(cfg Config, emitters []Emitter, noiseAmplitude float64, seed int64) (*Simulated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if noiseAmplitude < 0 {
		return nil, fmt.Errorf("sdr: noise amplitude must not be negative: %f", noiseAmplitude)
	}

	return &Simulated{
		cfg:      cfg,
		emitters: emitters,
		noise:    noiseAmplitude,
		gain:     math.Pow(10, cfg.HardwareGain/20),
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Capture synthesizes numSamples baseband samples for a receiver tuned to
// centerFreq.
func (s *Simulated) Capture(ctx context.Context, centerFreq int64, numSamples int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if numSamples <= 0 {
		return nil, fmt.Errorf("sdr: capture size must be positive: %d", numSamples)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]complex128, numSamples)
	halfBW := float64(s.cfg.RFBandwidth) / 2

	for _, e := range s.emitters {
		offset := float64(e.Frequency - centerFreq)
		if math.Abs(offset) > halfBW {
			continue
		}
		step := 2 * math.Pi * offset / float64(s.cfg.SampleRate)
		for i := range out {
			phase := step * float64(s.sample+int64(i))
			out[i] += complex(e.Amplitude, 0) * cmplx.Exp(complex(0, phase))
		}
	}

	if s.noise > 0 {
		for i := range out {
			out[i] += complex(s.rng.NormFloat64()*s.noise, s.rng.NormFloat64()*s.noise)
		}
	}

	// Front-end gain scales everything the receiver sees, noise included.
	if s.gain != 1 {
		for i := range out {
			out[i] *= complex(s.gain, 0)
		}
	}

	s.sample += int64(numSamples)
	return out, nil
}
