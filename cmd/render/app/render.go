package app

import (
	"errors"
	"image"
	"image/color"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

const (
	plotWidth  = 1200
	plotHeight = 500

	// Room below the plot for the info bar.
	infoBarHeight = 40
)

var (
	backgroundColor = color.RGBA{R: 16, G: 16, B: 24, A: 255}
	gridColor       = color.RGBA{R: 48, G: 48, B: 56, A: 255}
	peakMarkColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer draws a stitched sweep spectrum as a power-over-frequency plot:
// one colored column per pixel, height and color following the power level,
// with detected peaks marked.
type Renderer struct {
	mapper *ColorMapper
	bounds PowerBounds
}

func NewRenderer(theme ColorTheme, bounds PowerBounds) *Renderer {
	return &Renderer{
		mapper: NewColorMapper(theme, bounds),
		bounds: bounds,
	}
}

// Render draws the spectrum into a new image. The result must carry at least
// one data point.
func (r *Renderer) Render(result *spectrum.SweepResult) (*image.RGBA, error) {
	if len(result.Frequencies) == 0 || len(result.Frequencies) != len(result.PowerSpectrumDB) {
		return nil, errors.New("sweep result holds no spectrum data")
	}

	img := image.NewRGBA(image.Rect(0, 0, plotWidth, plotHeight+infoBarHeight))
	fill(img, backgroundColor)
	r.drawGrid(img)

	bins := len(result.PowerSpectrumDB)
	for x := 0; x < plotWidth; x++ {
		bin := x * bins / plotWidth
		h := r.barHeight(result.PowerSpectrumDB[bin])
		c := r.mapper.Color(result.PowerSpectrumDB[bin])

		for y := plotHeight - h; y < plotHeight; y++ {
			img.Set(x, y, c)
		}
	}

	r.drawPeaks(img, result)
	return img, nil
}

// barHeight maps a power level to a column height in pixels, clamped to the
// plot area.
func (r *Renderer) barHeight(power float64) int {
	v := (power - r.bounds.Min) / (r.bounds.Max - r.bounds.Min)
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v * float64(plotHeight-1))
}

func (r *Renderer) drawGrid(img *image.RGBA) {
	for y := plotHeight / 10; y < plotHeight; y += plotHeight / 10 {
		for x := 0; x < plotWidth; x++ {
			img.Set(x, y, gridColor)
		}
	}
	for x := plotWidth / 12; x < plotWidth; x += plotWidth / 12 {
		for y := 0; y < plotHeight; y++ {
			img.Set(x, y, gridColor)
		}
	}
}

// drawPeaks marks each detected peak with a vertical guideline above its
// column.
func (r *Renderer) drawPeaks(img *image.RGBA, result *spectrum.SweepResult) {
	if len(result.Peaks) == 0 {
		return
	}

	span := result.Frequencies[len(result.Frequencies)-1] - result.Frequencies[0]
	if span <= 0 {
		return
	}

	for _, p := range result.Peaks {
		x := int((p.Frequency - result.Frequencies[0]) / span * float64(plotWidth-1))
		if x < 0 || x >= plotWidth {
			continue
		}

		top := plotHeight - r.barHeight(p.PowerDB) - 12
		for y := top; y < top+10; y++ {
			if y >= 0 {
				img.Set(x, y, peakMarkColor)
			}
		}
	}
}

func fill(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}
