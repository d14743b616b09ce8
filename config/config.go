// Package config loads and validates the sync engine configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/peili/inventory"
	"github.com/yairfalse/peili/types"
)

// Config represents the main configuration
type Config struct {
	Inventory Inventory `yaml:"inventory"`
	AWS       AWS       `yaml:"aws"`
	Sync      Sync      `yaml:"sync"`
	OTEL      OTEL      `yaml:"otel,omitempty"`
	Log       Log       `yaml:"log,omitempty"`
}

// Inventory holds the store endpoint and credentials. Credentials may also
// come from the environment so config files can stay secret-free.
type Inventory struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AWS selects the provider account view.
type AWS struct {
	Region string `yaml:"region"`
}

// Sync tunes the reconciliation loop.
type Sync struct {
	Interval       time.Duration `yaml:"interval"`
	PageSize       int           `yaml:"page_size"`
	BatchSize      int           `yaml:"batch_size"`
	StaleChunkSize int           `yaml:"stale_chunk_size"`
	Types          []string      `yaml:"types,omitempty"`
}

// UnmarshalYAML parses the interval from "5m" style strings, which the YAML
// decoder does not do for time.Duration on its own.
func (s *Sync) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval       string   `yaml:"interval"`
		PageSize       int      `yaml:"page_size"`
		BatchSize      int      `yaml:"batch_size"`
		StaleChunkSize int      `yaml:"stale_chunk_size"`
		Types          []string `yaml:"types"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("invalid sync.interval %q: %w", raw.Interval, err)
		}
		s.Interval = d
	}
	s.PageSize = raw.PageSize
	s.BatchSize = raw.BatchSize
	s.StaleChunkSize = raw.StaleChunkSize
	s.Types = raw.Types
	return nil
}

// OTEL configures trace and metric export.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	PushMetrics bool   `yaml:"push_metrics"`
}

// Log configures logging output.
type Log struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset fields, pulling credentials from the environment
// when the file omits them.
func (c *Config) applyDefaults() {
	if c.Inventory.Username == "" {
		c.Inventory.Username = os.Getenv("PEILI_INVENTORY_USERNAME")
	}
	if c.Inventory.Password == "" {
		c.Inventory.Password = os.Getenv("PEILI_INVENTORY_PASSWORD")
	}
	if c.AWS.Region == "" {
		c.AWS.Region = os.Getenv("AWS_REGION")
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = inventory.DefaultPageSize
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = inventory.DefaultBatchSize
	}
	if c.Sync.StaleChunkSize == 0 {
		c.Sync.StaleChunkSize = inventory.DefaultStaleChunkSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Inventory.URL == "" {
		return fmt.Errorf("inventory.url is required")
	}
	if c.Inventory.Username == "" {
		return fmt.Errorf("inventory.username is required")
	}
	if c.Inventory.Password == "" {
		return fmt.Errorf("inventory.password is required")
	}
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	if c.Sync.Interval < time.Second {
		return fmt.Errorf("sync.interval must be at least 1s, got %s", c.Sync.Interval)
	}
	for _, t := range c.Sync.Types {
		if !types.AssetType(t).Valid() {
			return fmt.Errorf("sync.types contains unknown asset type %q", t)
		}
	}
	return nil
}

// AssetTypes converts the configured type names. Empty means every type.
func (c *Config) AssetTypes() []types.AssetType {
	out := make([]types.AssetType, 0, len(c.Sync.Types))
	for _, t := range c.Sync.Types {
		out = append(out, types.AssetType(t))
	}
	return out
}
