package spectrum

import "time"

// Segment is the power spectral density of a single sweep step, spanning one
// receiver bandwidth around its center frequency. Segments are produced in
// ascending center-frequency order within a sweep and are immutable once
// created.
type Segment struct {
	CenterFrequency int64     `json:"centerFrequency"` // Tuned center frequency in Hz
	Frequencies     []float64 `json:"frequencies"`     // Frequency axis in Hz, one point per FFT bin
	PowerDB         []float64 `json:"powerDB"`         // Power spectral density in dB, same length as Frequencies
	OK              bool      `json:"ok"`              // False when the capture for this step failed
}

// Stitched is a continuous spectrum assembled from ordered segments. A
// zero-length Stitched means "no data" and is a valid result, not an error;
// callers must check Empty before use.
type Stitched struct {
	Frequencies []float64 `json:"frequencies"`
	PowerDB     []float64 `json:"powerDB"`
}

// Empty reports whether the spectrum holds no data points.
func (s Stitched) Empty() bool {
	return len(s.Frequencies) == 0
}

// Peak is a detected local maximum in a power spectrum.
type Peak struct {
	Frequency float64 `json:"frequency"` // Peak frequency in Hz
	PowerDB   float64 `json:"powerDB"`   // Peak power in dB
}

// SweepResult is the serializable shape of one completed sweep, pushed to
// stream subscribers. Frequencies and PowerSpectrumDB always have equal length.
type SweepResult struct {
	Timestamp       time.Time `json:"timestamp"`
	StartFrequency  int64     `json:"startFrequency"`
	EndFrequency    int64     `json:"endFrequency"`
	Frequencies     []float64 `json:"frequencies"`
	PowerSpectrumDB []float64 `json:"powerSpectrumDB"`
	Peaks           []Peak    `json:"peaks,omitempty"`
}

// LiveResult is the serializable shape of one single-frequency capture,
// including the peak RSSI derived distance estimate. Frequencies and FFTDataDB
// always have equal length.
type LiveResult struct {
	Timestamp       time.Time `json:"timestamp"`
	CenterFrequency int64     `json:"centerFrequency"`
	Frequencies     []float64 `json:"frequencies"`
	FFTDataDB       []float64 `json:"fftDataDB"`
	PeakRSSIDBm     float64   `json:"peakRSSIDBm"`
	DistanceM       float64   `json:"distanceM"`
	RSSIRefDBm      float64   `json:"rssiRefDBm"`
}

// ScanSession records metadata about one scanning run, either a frequency
// sweep or a single-frequency tracking session.
type ScanSession struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	Mode      string    `json:"mode"`             // "sweep" or "track"
	Source    string    `json:"source"`           // Capture source type (e.g. "simulated", "iqfile")
	Config    *string   `json:"config,omitempty"` // Session configuration in JSON format
}
