package main

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Source tunes the simulated raw-pair channel.
type Source struct {
	// Pairs is the number of raw pairs to draw per run.
	Pairs int

	// FlipProb is the intrinsic error rate of the channel.
	FlipProb float64

	// DropProb is the probability that a position is lost.
	DropProb float64

	// Seed seeds the private randomness behind the raw material.
	Seed int64
}

// Pipeline tunes the distillation stages.
type Pipeline struct {
	SampleFraction float64
	Alpha          float64
	QberThreshold  float64
	FailureProb    float64
	MaxPasses      int

	// WinnowIters selects Winnow reconciliation when non-empty.
	WinnowIters []int

	// Seed seeds the shared public randomness.
	Seed int64
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level out of `ERROR`, `WARNING`, `NOTICE`,
	// `INFO` and `DEBUG`.
	Level string
}

func (l *Logging) validate() error {
	switch l.Level {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	default:
		return fmt.Errorf("config: Logging: invalid Level: '%v'", l.Level)
	}
	return nil
}

// Config is the top level configuration.
type Config struct {
	Source   Source
	Pipeline Pipeline
	Logging  Logging
}

// FixupAndValidate applies defaults and checks the configuration for sanity.
func (c *Config) FixupAndValidate() error {
	if c.Source.Pairs == 0 {
		c.Source.Pairs = 1 << 16
	}
	if c.Source.Pairs < 64 {
		return errors.New("config: Source: Pairs is unusably small")
	}
	if c.Source.FlipProb < 0 || c.Source.FlipProb > 1 {
		return errors.New("config: Source: FlipProb must lie in [0, 1]")
	}
	if c.Source.Seed == 0 {
		c.Source.Seed = 1
	}
	if c.Pipeline.Seed == 0 {
		c.Pipeline.Seed = 2
	}
	if c.Pipeline.Seed == c.Source.Seed {
		return errors.New("config: public and private seeds must differ")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	return c.Logging.validate()
}

// LoadConfig parses the TOML file at path, or returns the default
// configuration when path is empty.
func LoadConfig(path string) (*Config, error) {
	cfg := new(Config)
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
