package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"smmon/internal/pkg/client/sacct"
)

// DefaultRefreshRate is the refresh interval, in seconds, used when none is set.
const DefaultRefreshRate = 30

type Config struct {
	Dashboard Dashboard `yaml:"dashboard"`
	Sacct     Sacct     `yaml:"sacct"`
}

// Dashboard holds the settings the dashboard keeps for its whole lifetime.
type Dashboard struct {
	// WorkflowID scopes the sacct query; empty means all workflows.
	WorkflowID  string  `yaml:"workflowID"`
	RefreshRate int     `yaml:"refreshRate" validate:"gt=0"`
	ShowErrors  bool    `yaml:"showErrors"`
	Columns     Columns `yaml:"columns"`
}

// Columns are the display widths of the active-job table.
type Columns struct {
	JobID   int `yaml:"jobID" validate:"gte=1"`
	Name    int `yaml:"name" validate:"gte=1"`
	State   int `yaml:"state" validate:"gte=1"`
	Elapsed int `yaml:"elapsed" validate:"gte=1"`
	Memory  int `yaml:"memory" validate:"gte=1"`
	CPUs    int `yaml:"cpus" validate:"gte=1"`
}

type Sacct struct {
	Command string `yaml:"command" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dashboard: Dashboard{
			RefreshRate: DefaultRefreshRate,
			Columns: Columns{
				JobID:   15,
				Name:    25,
				State:   12,
				Elapsed: 12,
				Memory:  10,
				CPUs:    6,
			},
		},
		Sacct: Sacct{Command: sacct.DefaultCommand},
	}
}

// Load reads a YAML config file from the given path on top of Default. An
// empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file(%s): %w", path, err)
	}
	return cfg, nil
}

// Validate validates the config using go-playground/validator.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v.Struct(c)
}

// Interval returns the refresh rate as a duration.
func (d Dashboard) Interval() time.Duration {
	return time.Duration(d.RefreshRate) * time.Second
}
