package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/CorvusDB/internal/log"
	"github.com/dshills/CorvusDB/internal/query/planner"
)

// Config represents the complete optimizer configuration.
type Config struct {
	// Logging configuration
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Estimation configuration
	Estimation EstimationConfig `yaml:"estimation"`

	// Cost model configuration
	Cost CostConfig `yaml:"cost"`
}

// EstimationConfig represents cardinality-estimation configuration.
type EstimationConfig struct {
	// Transport selects the estimator: "heuristic" or "histogram".
	Transport string `yaml:"transport"`
}

// CostConfig represents cost model parameters.
type CostConfig struct {
	SequentialPageCost float64 `yaml:"sequential_page_cost"`
	RandomPageCost     float64 `yaml:"random_page_cost"`
	CPUTupleCost       float64 `yaml:"cpu_tuple_cost"`
	CPUIndexTupleCost  float64 `yaml:"cpu_index_tuple_cost"`
	CPUOperatorCost    float64 `yaml:"cpu_operator_cost"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	params := planner.DefaultCostParams()
	return &Config{
		LogLevel:  "warn",
		LogFormat: "text",
		Estimation: EstimationConfig{
			Transport: "heuristic",
		},
		Cost: CostConfig{
			SequentialPageCost: params.SequentialPageCost,
			RandomPageCost:     params.RandomPageCost,
			CPUTupleCost:       params.CPUTupleCost,
			CPUIndexTupleCost:  params.CPUIndexTupleCost,
			CPUOperatorCost:    params.CPUOperatorCost,
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFlags merges command-line flags into the configuration. Empty
// flag values leave the configured value in place.
func (c *Config) LoadFromFlags(logLevel, transport string) {
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if transport != "" {
		c.Estimation.Transport = transport
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}

	switch c.Estimation.Transport {
	case "heuristic", "histogram":
	default:
		return fmt.Errorf("invalid estimation transport: %s", c.Estimation.Transport)
	}

	if c.Cost.SequentialPageCost <= 0 {
		return fmt.Errorf("sequential page cost must be positive")
	}
	if c.Cost.RandomPageCost < c.Cost.SequentialPageCost {
		return fmt.Errorf("random page cost cannot be below sequential page cost")
	}
	if c.Cost.CPUTupleCost <= 0 || c.Cost.CPUIndexTupleCost <= 0 || c.Cost.CPUOperatorCost <= 0 {
		return fmt.Errorf("CPU cost parameters must be positive")
	}

	return nil
}

// ToLogConfig converts to the log package's configuration.
func (c *Config) ToLogConfig() log.Config {
	return log.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
	}
}

// ToCostParams converts to the planner's cost parameters.
func (c *Config) ToCostParams() *planner.CostParams {
	return &planner.CostParams{
		SequentialPageCost: c.Cost.SequentialPageCost,
		RandomPageCost:     c.Cost.RandomPageCost,
		CPUTupleCost:       c.Cost.CPUTupleCost,
		CPUIndexTupleCost:  c.Cost.CPUIndexTupleCost,
		CPUOperatorCost:    c.Cost.CPUOperatorCost,
	}
}
