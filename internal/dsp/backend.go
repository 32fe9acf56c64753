package dsp

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// BackendFourier selects the gonum radix FFT, the default.
	BackendFourier Backend = "fourier"

	// BackendPlan selects the plan-based algo-fft implementation.
	BackendPlan Backend = "plan"
)

// Backend names a transform backend implementation.
type Backend string

// Transformer is the compute capability the estimator depends on: a forward
// DFT of a fixed size with a synchronous, array-in/array-out contract.
// Implementations must be swappable without any change to their callers.
type Transformer interface {
	// Size returns the transform length the instance was created for.
	Size() int

	// Forward computes the forward DFT of src into dst. Both slices must have
	// exactly Size elements. dst and src must not alias.
	Forward(dst, src []complex128) error
}

// NewTransformer creates a transform backend of the given size. An empty
// backend name selects BackendFourier.
func NewTransformer(backend Backend, size int) (Transformer, error) {
	if size < 2 {
		return nil, fmt.Errorf("dsp: transform size must be at least 2: %d", size)
	}

	switch backend {
	case BackendFourier, "":
		return &fourierTransformer{fft: fourier.NewCmplxFFT(size), size: size}, nil

	case BackendPlan:
		plan, err := algofft.NewPlan64(size)
		if err != nil {
			return nil, fmt.Errorf("dsp: creating FFT plan: %w", err)
		}
		return &planTransformer{plan: plan, size: size}, nil

	default:
		return nil, fmt.Errorf("dsp: unknown transform backend '%s'", backend)
	}
}

type fourierTransformer struct {
	fft  *fourier.CmplxFFT
	size int
}

func (t *fourierTransformer) Size() int { return t.size }

func (t *fourierTransformer) Forward(dst, src []complex128) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("dsp: transform expects %d samples: dst=%d, src=%d", t.size, len(dst), len(src))
	}
	t.fft.Coefficients(dst, src)
	return nil
}

type planTransformer struct {
	plan *algofft.Plan[complex128]
	size int
}

func (t *planTransformer) Size() int { return t.size }

func (t *planTransformer) Forward(dst, src []complex128) error {
	if len(src) != t.size || len(dst) != t.size {
		return fmt.Errorf("dsp: transform expects %d samples: dst=%d, src=%d", t.size, len(dst), len(src))
	}
	if err := t.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("dsp: forward FFT: %w", err)
	}
	return nil
}
