package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/radio-spectrum/internal/sdr"
	"github.com/roman-kulish/radio-spectrum/internal/server"
	"github.com/roman-kulish/radio-spectrum/internal/sweep"
)

const (
	SourceSimulated = "simulated"
	SourceIQFile    = "iqfile"
)

// Config is the main application configuration.
type Config struct {
	Settings Settings        `yaml:"settings"`
	Server   ServerConfig    `yaml:"server"`
	Source   SourceConfig    `yaml:"source"`
	Hardware sdr.Config      `yaml:"hardware"`
	Sweep    SweepConfig     `yaml:"sweep"`
	FFT      sweep.FFTConfig `yaml:"fft"`
	Storage  StorageConfig   `yaml:"storage"`
}

// Settings holds global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"` // debug, info, warn or error; empty means info
	Mode     string `yaml:"mode"`     // "sweep" or "track"
}

// Level parses the configured log level.
func (s Settings) Level() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("settings: invalid log level '%s': %w", s.LogLevel, err)
	}
	return level, nil
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // host:port, empty means :8080
}

// SourceConfig selects and configures the capture source.
type SourceConfig struct {
	Type string `yaml:"type"` // "simulated" or "iqfile"

	// IQ file replay.
	Path string `yaml:"path"`

	// Simulated source.
	Emitters       []sdr.Emitter `yaml:"emitters"`
	NoiseAmplitude float64       `yaml:"noiseAmplitude"`
	Seed           int64         `yaml:"seed"`
}

// SweepConfig mirrors sweep.Config with a YAML-friendly dwell time.
type SweepConfig struct {
	StartFrequency int64 `yaml:"startFrequency"`
	EndFrequency   int64 `yaml:"endFrequency"`
	StepFrequency  int64 `yaml:"stepFrequency"`
	DwellTimeMS    int64 `yaml:"dwellTimeMs"`
}

func (c SweepConfig) sweepConfig() sweep.Config {
	return sweep.Config{
		StartFrequency: c.StartFrequency,
		EndFrequency:   c.EndFrequency,
		StepFrequency:  c.StepFrequency,
		DwellTime:      time.Duration(c.DwellTimeMS) * time.Millisecond,
	}
}

// StorageConfig holds persistence settings. Persistence is off unless a
// database path is configured.
type StorageConfig struct {
	DatabasePath string `yaml:"databasePath"`
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening configuration: %w", err)
	}
	defer f.Close()

	var config Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the combined configuration.
func (c *Config) Validate() error {
	if _, err := c.Settings.Level(); err != nil {
		return err
	}
	if c.Settings.Mode != server.ModeSweep && c.Settings.Mode != server.ModeTrack {
		return fmt.Errorf("settings: mode must be '%s' or '%s': '%s'", server.ModeSweep, server.ModeTrack, c.Settings.Mode)
	}

	switch c.Source.Type {
	case SourceSimulated:
		if c.Source.NoiseAmplitude < 0 {
			return fmt.Errorf("source: noise amplitude must not be negative: %f", c.Source.NoiseAmplitude)
		}
	case SourceIQFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source: iqfile source requires a path")
		}
	default:
		return fmt.Errorf("source: unknown type '%s'", c.Source.Type)
	}

	if err := c.Hardware.Validate(); err != nil {
		return err
	}
	if err := c.Sweep.sweepConfig().Validate(); err != nil {
		return err
	}
	if err := c.FFT.Validate(); err != nil {
		return err
	}
	return nil
}
