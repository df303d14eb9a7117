// Package config loads the pipeline configuration from a YAML file with
// environment overrides. Missing files fall back to defaults so the tool
// works out of the box against the public CTI OS endpoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ctios configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Remote registry service
	Service ServiceConfig `yaml:"service"`

	// Local file assets (templates, attribute mapping csv, logs)
	Paths PathsConfig `yaml:"paths"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig configures the CTI OS endpoint and request headers.
type ServiceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ContentType    string `yaml:"content_type"`
	AcceptEncoding string `yaml:"accept_encoding"`
	SOAPAction     string `yaml:"soap_action"`
	Connection     string `yaml:"connection"`
	Timeout        string `yaml:"timeout"`

	// Maximum number of posidents submitted in one request
	MaxBatchSize int `yaml:"max_batch_size"`
}

// PathsConfig configures directories for file-based collaborators.
type PathsConfig struct {
	TemplatesDir     string `yaml:"templates_dir"`
	CSVDir           string `yaml:"csv_dir"`
	AttributeMapFile string `yaml:"attribute_map_file"`
	LogDir           string `yaml:"log_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ctios",
		Version: "1.0.0",

		Service: ServiceConfig{
			Endpoint:       "https://katastr.cuzk.cz/ctios/ctios.asmx",
			ContentType:    "text/xml;charset=UTF-8",
			AcceptEncoding: "gzip,deflate",
			SOAPAction:     "http://katastr.cuzk.cz/ctios/ctios",
			Connection:     "Keep-Alive",
			Timeout:        "120s",
			MaxBatchSize:   10,
		},

		Paths: PathsConfig{
			TemplatesDir:     "templates",
			CSVDir:           "csv",
			AttributeMapFile: "attributes_mapping.csv",
			LogDir:           "",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.Service.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("max_batch_size must be positive, got %d", cfg.Service.MaxBatchSize)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CTIOS_ENDPOINT"); v != "" {
		c.Service.Endpoint = v
	}
	if v := os.Getenv("CTIOS_TEMPLATES_DIR"); v != "" {
		c.Paths.TemplatesDir = v
	}
	if v := os.Getenv("CTIOS_CSV_DIR"); v != "" {
		c.Paths.CSVDir = v
	}
	if v := os.Getenv("CTIOS_LOG_DIR"); v != "" {
		c.Paths.LogDir = v
	}
}

// Headers returns the HTTP request headers for service calls.
func (c *ServiceConfig) Headers() map[string]string {
	return map[string]string{
		"Content-Type":    c.ContentType,
		"Accept-Encoding": c.AcceptEncoding,
		"SOAPAction":      c.SOAPAction,
		"Connection":      c.Connection,
	}
}

// GetTimeout returns the service call timeout as a duration.
func (c *ServiceConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
