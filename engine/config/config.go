package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

type GridConfig struct {
	Color        uint32  `yaml:"color"` // 0xAARRGGBB
	Spacing      float32 `yaml:"spacing"`
	Thickness    float32 `yaml:"thickness"`
	Subdivisions uint32  `yaml:"subdivisions"`
}

type PipelinesConfig struct {
	Circles      int    `yaml:"circles"`
	Quads        int    `yaml:"quads"`
	PolyVertices int    `yaml:"poly_vertices"`
	Overflow     string `yaml:"overflow"` // "grow" | "reject"
}

type SimulationConfig struct {
	Substeps int `yaml:"substeps"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type DatalogConfig struct {
	// Path of the SQLite database; empty keeps samples in memory.
	Path string `yaml:"path"`
}

type OverlayConfig struct {
	Enabled  bool    `yaml:"enabled"`
	FontSize float64 `yaml:"font_size"`
}

type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Grid       GridConfig       `yaml:"grid"`
	Pipelines  PipelinesConfig  `yaml:"pipelines"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Datalog    DatalogConfig    `yaml:"datalog"`
	Overlay    OverlayConfig    `yaml:"overlay"`
}

func Defaults() Config {
	return Config{
		Window:     WindowConfig{Title: "physdraw", Width: 1280, Height: 720, VSync: true},
		Grid:       GridConfig{Color: 0xFF333333, Spacing: 30, Thickness: 1, Subdivisions: 5},
		Pipelines:  PipelinesConfig{Circles: 100, Quads: 100, PolyVertices: 1000, Overflow: "grow"},
		Simulation: SimulationConfig{Substeps: 1},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Overlay:    OverlayConfig{Enabled: true, FontSize: 14},
	}
}

const (
	EnvWindowWidth  = "PHYS_WINDOW_WIDTH"
	EnvWindowHeight = "PHYS_WINDOW_HEIGHT"
	EnvVSync        = "PHYS_VSYNC"
	EnvSubsteps     = "PHYS_SUBSTEPS"
	EnvDatalog      = "PHYS_DATALOG"
)

var ErrInvalid = errors.New("config: invalid value")

// Load reads path over the defaults. An empty path yields the defaults.
// Environment overrides are applied afterwards and the result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of whatever cfg already holds.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) ApplyEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvWindowWidth, &c.Window.Width},
		{EnvWindowHeight, &c.Window.Height},
		{EnvSubsteps, &c.Simulation.Substeps},
	}
	for _, e := range ints {
		v := strings.TrimSpace(os.Getenv(e.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", e.key, v, ErrInvalid)
		}
		*e.dst = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvVSync)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvVSync, v, ErrInvalid)
		}
		c.Window.VSync = b
	}
	if v, ok := os.LookupEnv(EnvDatalog); ok {
		c.Datalog.Path = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalid))
	}
	if c.Grid.Spacing <= 0 {
		errs = append(errs, fmt.Errorf("grid.spacing %v: %w", c.Grid.Spacing, ErrInvalid))
	}
	if c.Pipelines.Circles <= 0 || c.Pipelines.Quads <= 0 || c.Pipelines.PolyVertices < 3 {
		errs = append(errs, fmt.Errorf("pipeline capacities: %w", ErrInvalid))
	}
	switch strings.ToLower(c.Pipelines.Overflow) {
	case "", "grow", "reject":
	default:
		errs = append(errs, fmt.Errorf("pipelines.overflow %q: %w", c.Pipelines.Overflow, ErrInvalid))
	}
	if c.Simulation.Substeps < 1 {
		errs = append(errs, fmt.Errorf("simulation.substeps %d: %w", c.Simulation.Substeps, ErrInvalid))
	}
	if c.Overlay.Enabled && c.Overlay.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("overlay.font_size %v: %w", c.Overlay.FontSize, ErrInvalid))
	}
	return errors.Join(errs...)
}

// Marshal renders the config as YAML, e.g. to write a starter file.
func (c Config) Marshal() ([]byte, error) { return yaml.Marshal(c) }
