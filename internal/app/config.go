package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to
// run. Zero values mean "keep whatever the jobfile or engine default
// says" for the engine-related fields.
type Config struct {
	JobfilePath string
	// Target names a job to run instead of the graph root.
	Target string

	NoAct      bool
	NoCleanup  bool
	Tries      int
	RetryDelay string

	GraphPath   string
	GraphFormat string
	Display     bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobfilePath == "" {
		return nil, errors.New("JobfilePath is a required configuration field and cannot be empty")
	}
	if cfg.Tries < 0 {
		return nil, fmt.Errorf("tries %d cannot be negative", cfg.Tries)
	}
	if cfg.RetryDelay != "" {
		if _, err := time.ParseDuration(cfg.RetryDelay); err != nil {
			return nil, fmt.Errorf("invalid retry delay: %w", err)
		}
	}
	if cfg.GraphFormat == "" {
		cfg.GraphFormat = "png"
	}
	return &cfg, nil
}
