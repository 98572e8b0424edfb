package app

import (
	"errors"
	"fmt"

	"github.com/vk/breastfem/internal/scheduler"
)

// Command selects what a run does.
type Command string

const (
	// Generate compiles settings files into solver inputs.
	Generate Command = "generate"
	// Fem runs the solver over existing solver inputs.
	Fem Command = "fem"
	// Convert reduces existing solver output.
	Convert Command = "convert"
	// Pipeline compiles, solves and reduces.
	Pipeline Command = "run"
	// WriteDefaultSettings writes the default settings file.
	WriteDefaultSettings Command = "write-default-settings"
)

// Commands in the order they are listed in help output.
var Commands = []Command{Generate, Fem, Convert, Pipeline, WriteDefaultSettings}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command
	Inputs  []string // files or directories

	// Parallelism is the -j value: 0 auto, 1 internal threads, n > 1 n
	// concurrent solver processes.
	Parallelism  int
	Febio        string
	StrictZoning bool
	ReportPath   string
	EventsURL    string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	known := false
	for _, c := range Commands {
		known = known || c == cfg.Command
	}
	if !known {
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if len(cfg.Inputs) == 0 {
		return nil, errors.New("at least one input path is required")
	}
	if cfg.Command == WriteDefaultSettings && len(cfg.Inputs) != 1 {
		return nil, fmt.Errorf("%s takes exactly one path", cfg.Command)
	}
	if _, err := scheduler.PolicyFromInt(cfg.Parallelism); err != nil {
		return nil, err
	}
	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}

// Policy is the scheduling policy for the configured parallelism.
func (c *Config) Policy() scheduler.Policy {
	p, err := scheduler.PolicyFromInt(c.Parallelism)
	if err != nil {
		// NewConfig has already rejected this value.
		panic(err)
	}
	return p
}
