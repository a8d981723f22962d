package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath    string // hcl file or directory
	HistoryPath string // sqlite file, empty disables run history

	LogFormat string
	LogLevel  string

	// ReportFormat selects the one-shot report rendering: "text" or
	// "json". Empty means text.
	ReportFormat string

	// ServeAddr switches the app into server mode: instead of one run, it
	// listens for repository events. Empty means run once and exit.
	ServeAddr string

	// Workers and StepTimeout override the grid's own settings when set;
	// zero defers to the grid.
	Workers     int
	StepTimeout time.Duration
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("Workers cannot be negative")
	}
	if cfg.StepTimeout < 0 {
		return nil, errors.New("StepTimeout cannot be negative")
	}

	return &cfg, nil
}
