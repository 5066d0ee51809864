package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/forestwatch/deforestation-backend-go/internal/detection"
)

// Config is the full application configuration. Every detector coefficient,
// blend weight and window size lives here rather than in code, loaded from a
// YAML file with environment-variable overrides for deployment knobs.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Detection DetectionConfig `yaml:"detection"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type DetectionConfig struct {
	// WindowSize is the rolling observation window per cell (about 180 days
	// at a 6-day revisit cadence).
	WindowSize int `yaml:"window_size"`

	// MinHistory is the minimum past observations required before a cell can
	// be evaluated at all.
	MinHistory int `yaml:"min_history"`

	// CellSideMeters is the grid cell edge length (100 m for the 1 ha grid).
	CellSideMeters float64 `yaml:"cell_side_meters"`

	// ModelPath locates the versioned validator weights file.
	ModelPath string `yaml:"model_path"`

	Detector detection.DetectorConfig `yaml:"detector"`
	Combiner detection.CombinerConfig `yaml:"combiner"`
}

type PipelineConfig struct {
	// Workers bounds the per-cell evaluation pool.
	Workers int `yaml:"workers"`
}

// Default returns the nominal configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./data/deforestation.db",
		},
		Detection: DetectionConfig{
			WindowSize:     30,
			MinHistory:     5,
			CellSideMeters: 100.0,
			ModelPath:      "./models/validator.json",
			Detector:       detection.DefaultDetectorConfig(),
			Combiner:       detection.DefaultCombinerConfig(),
		},
		Pipeline: PipelineConfig{
			Workers: 8,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Detection.ModelPath = v
	}
	if v := os.Getenv("PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Workers = n
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Detection.WindowSize < 1 {
		return fmt.Errorf("detection window size must be positive, got %d", c.Detection.WindowSize)
	}
	if c.Detection.MinHistory < 1 || c.Detection.MinHistory > c.Detection.WindowSize {
		return fmt.Errorf("min history must be in [1, window size], got %d", c.Detection.MinHistory)
	}
	if c.Detection.CellSideMeters <= 0 {
		return fmt.Errorf("cell side must be positive, got %v", c.Detection.CellSideMeters)
	}
	if c.Detection.Detector.ProximityMinFactor <= 0 || c.Detection.Detector.ProximityMinFactor > 1 {
		return fmt.Errorf("proximity min factor must be in (0, 1], got %v", c.Detection.Detector.ProximityMinFactor)
	}
	if c.Detection.Combiner.DecisionThreshold < 0 || c.Detection.Combiner.DecisionThreshold > 1 {
		return fmt.Errorf("decision threshold must be in [0, 1], got %v", c.Detection.Combiner.DecisionThreshold)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be positive, got %d", c.Pipeline.Workers)
	}
	return nil
}
