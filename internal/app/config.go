package app

import (
	"errors"
	"path/filepath"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	MatrixPath string // hcl file or directory

	WorkDir    string // root for per-run job workspaces
	CacheDir   string // shared advisory cache root
	ReportPath string // optional YAML report destination

	LogFormat   string
	LogLevel    string
	StatusPort  int
	Workers     int
	StepTimeout time.Duration
	DryRun      bool
}

// NewConfig validates a Config and applies defaults for optional fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.MatrixPath == "" {
		return nil, errors.New("MatrixPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		return nil, errors.New("Workers must be at least 1")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = ".gridci"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.WorkDir, "cache")
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 10 * time.Minute
	}
	return &cfg, nil
}
