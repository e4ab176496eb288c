package api

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds run defaults that can be kept next to a catalog instead of
// being passed as flags every time.
type Config struct {
	Train            string   `yaml:"train"`
	Layout           string   `yaml:"layout"`
	RegistryTool     string   `yaml:"registryTool"`
	RegistryRetries  uint     `yaml:"registryRetries"`
	StaticTags       string   `yaml:"staticTags"`
	ValidatorCommand []string `yaml:"validatorCommand"`
	Include          []string `yaml:"include"`
	Exclude          []string `yaml:"exclude"`
	Output           string   `yaml:"output"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() *Config {
	return &Config{
		Train:           "test",
		Layout:          LayoutVersioned,
		RegistryTool:    RegistryToolSkopeo,
		RegistryRetries: 3,
		Output:          OutputText,
	}
}

// LoadConfig reads a config YAML file over the defaults and validates it.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Train == "" {
		return fmt.Errorf("train is required")
	}

	switch c.Layout {
	case LayoutVersioned, LayoutInPlace:
	default:
		return fmt.Errorf("unknown layout %q (valid: %s, %s)", c.Layout, LayoutVersioned, LayoutInPlace)
	}

	switch c.RegistryTool {
	case RegistryToolSkopeo, RegistryToolCrane:
	case RegistryToolStatic:
		if c.StaticTags == "" {
			return fmt.Errorf("staticTags is required for registry tool %q", RegistryToolStatic)
		}
	default:
		return fmt.Errorf("unknown registry tool %q (valid: %s, %s, %s)", c.RegistryTool, RegistryToolSkopeo, RegistryToolCrane, RegistryToolStatic)
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output %q (valid: %s, %s, %s)", c.Output, OutputText, OutputJSON, OutputYAML)
	}

	if c.RegistryRetries == 0 {
		return fmt.Errorf("registryRetries must be at least 1")
	}

	return nil
}
