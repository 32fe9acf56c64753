package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

type Config struct {
	InputFile     string
	OutputFile    string
	FontFile      string
	Format        ImageFormat
	Theme         ColorTheme
	MaxPower      *float64
	MinPower      *float64
	NoAnnotations bool
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Theme:  ClassicTheme,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	var minPower, maxPower float64
	flag.StringVar(&c.InputFile, "i", "", "Path to the sweep result JSON file")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&c.FontFile, "font", "", "Path to a TTF font used for annotations")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&theme, "theme", string(ClassicTheme), "Color theme. [classic, grayscale, thermal]")
	flag.Float64Var(&minPower, "min-power", 0, "Define a manual minimum power (format nn.n)")
	flag.Float64Var(&maxPower, "max-power", 0, "Define a manual maximum power (format nn.n)")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as the frequency and power scales")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)
	theme = strings.ToLower(theme)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-power" {
			c.MinPower = &minPower
		}
		if f.Name == "max-power" {
			c.MaxPower = &maxPower
		}
	})

	var err error
	if c.InputFile == "" {
		err = errors.New("input file is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.FontFile == "" && !c.NoAnnotations {
		err = errors.New("font file is required unless annotations are disabled")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validColorThemes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
