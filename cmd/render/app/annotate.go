package app

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

const (
	dpi     float64 = 72
	size    float64 = 14
	spacing float64 = 1.1
)

type Annotator struct {
	context *freetype.Context
}

// NewAnnotator loads the TTF font at fontPath and prepares a drawing context
// for scale and info annotations.
func NewAnnotator(fontPath string) (*Annotator, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

func (a *Annotator) Annotate(img *image.RGBA, result *spectrum.SweepResult, bounds PowerBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *spectrum.SweepResult, PowerBounds) error
	}{
		{"drawing frequency scale", a.drawFrequencyScale},
		{"drawing power scale", a.drawPowerScale},
		{"drawing info", a.drawInfo},
	}
	for _, op := range ops {
		if err := op.fn(img, result, bounds); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawFrequencyScale(img *image.RGBA, result *spectrum.SweepResult, _ PowerBounds) error {
	count := plotWidth / 300
	freqMin := result.Frequencies[0]
	freqMax := result.Frequencies[len(result.Frequencies)-1]
	hzPerLabel := (freqMax - freqMin) / float64(count)
	pxPerLabel := plotWidth / count

	for si := 0; si < count; si++ {
		hz := freqMin + float64(si)*hzPerLabel
		px := si * pxPerLabel

		fract, suffix := humanize.ComputeSI(hz)
		str := fmt.Sprintf("%0.2f %sHz", fract, suffix)

		// draw a guideline on the exact frequency
		for i := 0; i < 25; i++ {
			img.Set(px, i, image.White)
		}

		pt := freetype.Pt(px+5, 15)
		if _, err := a.context.DrawString(str, pt); err != nil {
			return err
		}
	}

	return nil
}

func (a *Annotator) drawPowerScale(img *image.RGBA, _ *spectrum.SweepResult, bounds PowerBounds) error {
	count := plotHeight / 100
	dbPerLabel := (bounds.Max - bounds.Min) / float64(count)
	pxPerLabel := plotHeight / count

	for si := 1; si < count; si++ {
		db := bounds.Max - float64(si)*dbPerLabel
		px := si * pxPerLabel

		// draw a guideline on the exact power level
		for i := 0; i < 50; i++ {
			img.Set(i, px, image.White)
		}

		pt := freetype.Pt(3, px-3)
		if _, err := a.context.DrawString(fmt.Sprintf("%0.1f dB", db), pt); err != nil {
			return err
		}
	}

	return nil
}

// drawInfo renders the summary bar below the plot: frequency span, bin
// width, peak count and sweep timestamp.
func (a *Annotator) drawInfo(img *image.RGBA, result *spectrum.SweepResult, _ PowerBounds) error {
	freqMin := result.Frequencies[0]
	freqMax := result.Frequencies[len(result.Frequencies)-1]

	binWidth := 0.0
	if len(result.Frequencies) > 1 {
		binWidth = (freqMax - freqMin) / float64(len(result.Frequencies)-1)
	}

	minF, minS := humanize.ComputeSI(freqMin)
	maxF, maxS := humanize.ComputeSI(freqMax)
	binF, binS := humanize.ComputeSI(binWidth)

	str := fmt.Sprintf("%0.2f %sHz - %0.2f %sHz | bin %0.1f %sHz | %d peaks | %s",
		minF, minS, maxF, maxS, binF, binS, len(result.Peaks),
		result.Timestamp.UTC().Format(time.DateTime))

	pt := freetype.Pt(5, plotHeight+5)
	pt.Y += a.context.PointToFixed(size * spacing)
	_, err := a.context.DrawString(str, pt)
	return err
}
