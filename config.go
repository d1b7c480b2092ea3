package floatgauge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/floatgauge/floatgauge/logging"
)

// Config holds the tunable pieces of an analysis session.
type Config struct {
	Solver struct {
		// Path to the z3 binary. Empty resolves "z3" from PATH.
		Path string `yaml:"path"`
		// TimeoutSeconds bounds each solver query. Zero disables the limit.
		TimeoutSeconds float64 `yaml:"timeout_seconds"`
	} `yaml:"solver"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Report struct {
		// Output is the file the error report is written to. Empty means
		// stdout.
		Output string `yaml:"output"`
	} `yaml:"report"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Solver.TimeoutSeconds = 30
	cfg.Logging.Level = "warn"
	return cfg
}

// LoadConfig reads a yaml config file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Solver.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("config %s: solver.timeout_seconds must not be negative", path)
	}
	return cfg, nil
}

// Timeout converts the configured solver timeout to a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Solver.TimeoutSeconds * float64(time.Second))
}

// LogLevel parses the configured logging level, defaulting to warn.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
