package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/roman-kulish/radio-spectrum/internal/spectrum"
)

// Run loads an exported sweep result and renders it into an annotated
// spectrum plot.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := loadResult(config.InputFile)
	if err != nil {
		return fmt.Errorf("loading sweep result: %w", err)
	}

	bounds := ComputePowerBounds(result.PowerSpectrumDB, config.MinPower, config.MaxPower)

	logger.Info("rendering spectrum",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
		),
		slog.Group("spectrum",
			slog.Int("points", len(result.Frequencies)),
			slog.Int("peaks", len(result.Peaks)),
			slog.String("minPower", fmt.Sprintf("%0.2fdB", bounds.Min)),
			slog.String("maxPower", fmt.Sprintf("%0.2fdB", bounds.Max)),
		))

	img, err := NewRenderer(config.Theme, bounds).Render(result)
	if err != nil {
		return fmt.Errorf("rendering spectrum: %w", err)
	}

	if !config.NoAnnotations {
		annotator, err := NewAnnotator(config.FontFile)
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		if err = annotator.Annotate(img, result, bounds); err != nil {
			return fmt.Errorf("annotating spectrum: %w", err)
		}
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})

	default:
		err = png.Encode(out, img)
	}
	return err
}

func loadResult(path string) (*spectrum.SweepResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var result spectrum.SweepResult
	if err := json.NewDecoder(f).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	return &result, nil
}
