package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mlipens/pkg/types"
)

// Config holds the parameters of one ensemble run.
// Zero values mean "unspecified" and are replaced by defaults in Normalize.
type Config struct {
	// Models is the ordered ensemble configuration; order fixes report
	// column order.
	Models []types.ModelConfig `json:"models" yaml:"models" toml:"models"`

	// InputDir holds structure files to predict; TrajFile is a labeled
	// trajectory. A run uses one or the other.
	InputDir string `json:"input_dir" yaml:"input_dir" toml:"input_dir"`
	TrajFile string `json:"traj_file" yaml:"traj_file" toml:"traj_file"`

	OutputDir      string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	PredictionType string `json:"prediction_type" yaml:"prediction_type" toml:"prediction_type"`

	// Correction toggles the post-hoc energy correction. Nil means enabled;
	// set false when reference energies are already corrected.
	Correction *bool `json:"correction" yaml:"correction" toml:"correction"`

	// TestSize is the test fraction (0,1) or absolute count (>=1) for
	// trajectory splits; Seed fixes the shuffle.
	TestSize float64 `json:"test_size" yaml:"test_size" toml:"test_size"`
	Seed     int64   `json:"seed" yaml:"seed" toml:"seed"`

	// ModelsDir is scanned for weight artifacts referenced by model params.
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`

	// TimeoutSec bounds each external calculator call; 0 means unbounded.
	TimeoutSec int `json:"timeout_sec" yaml:"timeout_sec" toml:"timeout_sec"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.OutputDir == "" {
		c.OutputDir = "results"
	}
	if c.TestSize == 0 {
		c.TestSize = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// CorrectionEnabled reports the correction switch with its default of true.
func (c *Config) CorrectionEnabled() bool {
	return c.Correction == nil || *c.Correction
}

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
