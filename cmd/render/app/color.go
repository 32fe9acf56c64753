package app

import (
	"image/color"
	"math"
)

// ColorTheme names a power-to-color gradient used for the spectrum trace.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
)

var validColorThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	ThermalTheme:   {},
}

// themeFunc maps a normalized power in [0, 1] to a color.
func themeFunc(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case GrayscaleTheme:
		return func(v float64) color.Color {
			g := uint8(v * 255)
			return color.RGBA{R: g, G: g, B: g, A: 255}
		}

	case ThermalTheme:
		return func(v float64) color.Color {
			switch {
			case v < 1.0/3:
				return color.RGBA{R: uint8(v * 3 * 255), A: 255}
			case v < 2.0/3:
				return color.RGBA{R: 255, G: uint8((v - 1.0/3) * 3 * 255), A: 255}
			default:
				return color.RGBA{R: 255, G: 255, B: uint8((v - 2.0/3) * 3 * 255), A: 255}
			}
		}

	default: // ClassicTheme
		return func(v float64) color.Color {
			return color.RGBA{
				R: uint8(v * 255),
				G: uint8(64 * math.Sin(v*math.Pi)),
				B: uint8((1 - v) * 255),
				A: 255,
			}
		}
	}
}

// ColorMapper maps power levels to pre-computed theme colors over a fixed
// power range.
type ColorMapper struct {
	colorMap    []color.Color
	boundsMin   float64
	boundsRange float64
}

const colorMapSize = 256

// NewColorMapper pre-computes the gradient of the given theme across the
// power bounds.
func NewColorMapper(theme ColorTheme, bounds PowerBounds) *ColorMapper {
	cm := &ColorMapper{
		colorMap:    make([]color.Color, colorMapSize),
		boundsMin:   bounds.Min,
		boundsRange: bounds.Max - bounds.Min,
	}

	fn := themeFunc(theme)
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(colorMapSize-1))
	}
	return cm
}

// Color returns the theme color for a power level, clamping values outside
// the bounds to the gradient ends.
func (cm *ColorMapper) Color(power float64) color.Color {
	if cm.boundsRange <= 0 {
		return cm.colorMap[0]
	}

	idx := int((power - cm.boundsMin) / cm.boundsRange * float64(colorMapSize-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= colorMapSize {
		idx = colorMapSize - 1
	}
	return cm.colorMap[idx]
}
