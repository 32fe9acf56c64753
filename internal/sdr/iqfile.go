package sdr

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

const iqSampleSize = 8 // interleaved float32 I and Q

// IQFile replays interleaved complex64 IQ samples from a recording. The file
// is read sequentially and wraps around at EOF, so a short recording can feed
// an arbitrarily long scan. The tuned center frequency is ignored; a
// recording represents whatever the radio was tuned to when it was made.
type IQFile struct {
	mu sync.Mutex
	f  *os.File
}

// OpenIQFile opens an IQ recording for replay.
func OpenIQFile(path string) (*IQFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sdr: opening IQ file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sdr: stat IQ file: %w", err)
	}
	if info.Size() < iqSampleSize {
		f.Close()
		return nil, fmt.Errorf("sdr: IQ file %s holds no complete samples", path)
	}

	return &IQFile{f: f}, nil
}

// Capture reads the next numSamples samples from the recording, wrapping to
// the start at EOF.
func (r *IQFile) Capture(ctx context.Context, _ int64, numSamples int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if numSamples <= 0 {
		return nil, fmt.Errorf("sdr: capture size must be positive: %d", numSamples)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, iqSampleSize)
	out := make([]complex128, numSamples)
	for i := range out {
		if _, err := io.ReadFull(r.f, buf); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("sdr: reading IQ file: %w", err)
			}
			if _, err := r.f.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("sdr: rewinding IQ file: %w", err)
			}
			if _, err := io.ReadFull(r.f, buf); err != nil {
				return nil, fmt.Errorf("sdr: reading IQ file after rewind: %w", err)
			}
		}

		re := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
		out[i] = complex(float64(re), float64(im))
	}
	return out, nil
}

// Close releases the underlying file.
func (r *IQFile) Close() error {
	return r.f.Close()
}
