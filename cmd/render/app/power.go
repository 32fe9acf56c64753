package app

import "sort"

const (
	defaultMinPower = -120.0 // dB
	defaultMaxPower = -20.0  // dB

	// Padding keeps the trace off the plot edges.
	boundsPaddingDB = 5.0
)

// PowerBounds is the displayed power range of the plot.
type PowerBounds struct {
	Min float64
	Max float64
}

func defaultPowerBounds() PowerBounds {
	return PowerBounds{Min: defaultMinPower, Max: defaultMaxPower}
}

// ComputePowerBounds derives the display range from the 5th and 95th power
// percentiles, padded so spikes remain visible. Manual overrides win over the
// computed values.
func ComputePowerBounds(power []float64, manualMin, manualMax *float64) PowerBounds {
	bounds := defaultPowerBounds()

	if len(power) > 0 {
		sorted := make([]float64, len(power))
		copy(sorted, power)
		sort.Float64s(sorted)

		bounds.Min = percentile(sorted, 0.05) - boundsPaddingDB
		bounds.Max = percentile(sorted, 0.95) + boundsPaddingDB
	}

	if manualMin != nil {
		bounds.Min = *manualMin
	}
	if manualMax != nil {
		bounds.Max = *manualMax
	}
	if bounds.Max <= bounds.Min {
		bounds.Max = bounds.Min + 1
	}
	return bounds
}

// percentile returns the value at fraction p of the sorted slice.
func percentile(sorted []float64, p float64) float64 {
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
