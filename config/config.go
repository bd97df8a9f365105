// Package config provides configuration loading and management for
// the rmlstream CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete rmlstream configuration.
type Config struct {
	Mapping MappingConfig `yaml:"mapping"`
	Output  OutputConfig  `yaml:"output"`
	Engine  EngineConfig  `yaml:"engine"`
}

// MappingConfig configures the mapping inputs.
type MappingConfig struct {
	// Files are glob patterns selecting mapping documents.
	Files []string `yaml:"files"`
	// SourceDir is the base directory source references resolve
	// against.
	SourceDir string `yaml:"source_dir"`
}

// OutputConfig configures where statements go.
type OutputConfig struct {
	// Path is the output file; empty means stdout.
	Path string `yaml:"path"`
	// Format is "ntriples" or "turtle".
	Format string `yaml:"format"`
	// NATS enables publishing statements to a NATS subject.
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS statement sink.
type NATSConfig struct {
	// URL is the NATS server URL; empty disables the sink.
	URL string `yaml:"url"`
	// Subject is the publish subject.
	Subject string `yaml:"subject"`
}

// EngineConfig configures execution behavior.
type EngineConfig struct {
	// Normalization is the Unicode normalization form applied to IRI
	// template values: NFC, NFD, NFKC or NFKD.
	Normalization string `yaml:"normalization"`
	// LowercasePercentEncoding selects lower-case hex in IRI percent
	// escapes, for backward-compatible output.
	LowercasePercentEncoding bool `yaml:"lowercase_percent_encoding"`
	// Timeout bounds collected mapping runs.
	Timeout time.Duration `yaml:"timeout"`
	// ContinueOnError keeps sibling pipelines running after one
	// pipeline fails.
	ContinueOnError bool `yaml:"continue_on_error"`
	// Strict promotes per-record term generation errors to pipeline
	// failures.
	Strict bool `yaml:"strict"`
	// JoinSpillDir enables the SQLite-backed child-side join store,
	// spilling to the given directory.
	JoinSpillDir string `yaml:"join_spill_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			SourceDir: ".",
		},
		Output: OutputConfig{
			Format: "ntriples",
			NATS: NATSConfig{
				Subject: "rml.statements",
			},
		},
		Engine: EngineConfig{
			Normalization: "NFC",
			Timeout:       30 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "ntriples", "turtle":
	default:
		return fmt.Errorf("output.format must be ntriples or turtle, got %q", c.Output.Format)
	}
	switch c.Engine.Normalization {
	case "NFC", "NFD", "NFKC", "NFKD":
	default:
		return fmt.Errorf("engine.normalization must be one of NFC, NFD, NFKC, NFKD, got %q", c.Engine.Normalization)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Mapping.Files) > 0 {
		c.Mapping.Files = other.Mapping.Files
	}
	if other.Mapping.SourceDir != "" {
		c.Mapping.SourceDir = other.Mapping.SourceDir
	}

	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.NATS.URL != "" {
		c.Output.NATS.URL = other.Output.NATS.URL
	}
	if other.Output.NATS.Subject != "" {
		c.Output.NATS.Subject = other.Output.NATS.Subject
	}

	if other.Engine.Normalization != "" {
		c.Engine.Normalization = other.Engine.Normalization
	}
	if other.Engine.LowercasePercentEncoding {
		c.Engine.LowercasePercentEncoding = true
	}
	if other.Engine.Timeout != 0 {
		c.Engine.Timeout = other.Engine.Timeout
	}
	if other.Engine.ContinueOnError {
		c.Engine.ContinueOnError = true
	}
	if other.Engine.Strict {
		c.Engine.Strict = true
	}
	if other.Engine.JoinSpillDir != "" {
		c.Engine.JoinSpillDir = other.Engine.JoinSpillDir
	}
}
