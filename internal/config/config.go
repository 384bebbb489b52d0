package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/aerosim/internal/aero"
)

const (
	DefaultDataDir    = "data"
	DefaultStore      = "fs"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	DefaultWorkers    = 4
	DefaultBins       = 40
	DefaultRMin       = 1e-9
	DefaultRMax       = 1e-5
	DefaultPlotWidth  = 60
	DefaultPlotHeight = 15
)

type Config struct {
	DataDir       string     `yaml:"data_dir"`
	Store         string     `yaml:"store"`
	Species       string     `yaml:"species"`
	StrictSpecies bool       `yaml:"strict_species"`
	Workers       int        `yaml:"workers"`
	LogLevel      string     `yaml:"log_level"`
	LogFormat     string     `yaml:"log_format"`
	Grid          GridConfig `yaml:"grid"`
	Plot          PlotConfig `yaml:"plot"`
}

// GridConfig describes the radius bins used for plots and exports (m).
type GridConfig struct {
	Bins int     `yaml:"bins"`
	RMin float64 `yaml:"r_min"`
	RMax float64 `yaml:"r_max"`
}

type PlotConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		Store:     DefaultStore,
		Workers:   DefaultWorkers,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Grid: GridConfig{
			Bins: DefaultBins,
			RMin: DefaultRMin,
			RMax: DefaultRMax,
		},
		Plot: PlotConfig{
			Width:  DefaultPlotWidth,
			Height: DefaultPlotHeight,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Store {
	case "fs", "sqlite":
	default:
		return fmt.Errorf("store must be fs or sqlite, got %q", c.Store)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Plot.Width < 1 || c.Plot.Height < 1 {
		return fmt.Errorf("plot size must be positive, got %dx%d", c.Plot.Width, c.Plot.Height)
	}
	_, err := c.BinGrid()
	return err
}

func (c *Config) BinGrid() (*aero.BinGrid, error) {
	return aero.NewBinGrid(c.Grid.Bins, c.Grid.RMin, c.Grid.RMax)
}

// BuildOptions turns the config into mode builder options.
func (c *Config) BuildOptions(log *zap.Logger) []aero.Option {
	opts := []aero.Option{aero.WithLogger(log)}
	if c.StrictSpecies {
		opts = append(opts, aero.WithStrictSpecies())
	}
	return opts
}
