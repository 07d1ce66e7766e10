package main

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rasky/zfile/internal/logging"
)

// Config is the command configuration. Values come from the optional YAML
// file given with --config, then from ZFILE_* variables, then defaults.
// Command line flags override all of them.
type Config struct {
	// Level is the compression level used when no -1..-9 flag is given.
	Level int `yaml:"level" env:"ZFILE_LEVEL" env-default:"6"`

	// Suffix is appended to compressed file names.
	Suffix string `yaml:"suffix" env:"ZFILE_SUFFIX" env-default:".gz"`

	// MetricsFile, when set, receives run metrics in textfile format.
	MetricsFile string `yaml:"metricsFile" env:"ZFILE_METRICS_FILE"`

	Log logging.Config `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Level < 1 || cfg.Level > 9 {
		return nil, fmt.Errorf("config: level %d out of range 1-9", cfg.Level)
	}
	if cfg.Suffix == "" {
		return nil, fmt.Errorf("config: empty suffix")
	}
	return &cfg, nil
}
