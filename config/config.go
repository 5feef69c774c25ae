// Package config provides configuration loading and management for htan2bind.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete htan2bind configuration
type Config struct {
	Synapse SynapseConfig `yaml:"synapse"`
	Source  SourceConfig  `yaml:"source"`
	Binding BindingConfig `yaml:"binding"`
	Paths   PathsConfig   `yaml:"paths"`
}

// SynapseConfig configures the platform connection
type SynapseConfig struct {
	// Endpoint is the repository service endpoint
	Endpoint string `yaml:"endpoint"`
	// Organization is the schema organization owning registered schemas
	Organization string `yaml:"organization"`
	// AuthTokenEnv names the environment variable holding the access token
	AuthTokenEnv string `yaml:"auth_token_env"`
	// EnableDerivedAnnotations is passed through on bind requests
	EnableDerivedAnnotations bool `yaml:"enable_derived_annotations"`
}

// SourceConfig configures the schema source repository
type SourceConfig struct {
	// RepoURL is the contents API base of the schema repository
	RepoURL string `yaml:"repo_url"`
	// Dir is the directory holding schema files within the repository
	Dir string `yaml:"dir"`
	// LocalPath, when set, lists schemas from a local checkout instead
	LocalPath string `yaml:"local_path"`
}

// BindingConfig configures bind execution
type BindingConfig struct {
	// DefaultTimeout bounds a single bind attempt
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// ExtendedTimeout bounds bind attempts for large schemas
	ExtendedTimeout time.Duration `yaml:"extended_timeout"`
	// LargeSchemas lists schema components that need the extended timeout
	LargeSchemas []string `yaml:"large_schemas"`
	// Workers bounds the bind worker pool (the platform is rate-limited)
	Workers int `yaml:"workers"`
	// MaxAttempts is the retry ceiling for transient failures
	MaxAttempts int `yaml:"max_attempts"`
	// BackoffBase is the initial retry backoff
	BackoffBase time.Duration `yaml:"backoff_base"`
	// BackoffMultiplier is applied to backoff on each retry
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	// MaxBackoff caps the retry backoff
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// PathsConfig configures file locations
type PathsConfig struct {
	// FolderStructure is the provisioning collaborator's folder map
	FolderStructure string `yaml:"folder_structure"`
	// BindingConfig is the cumulative binding configuration document
	BindingConfig string `yaml:"binding_config"`
	// ReportDir receives run reports
	ReportDir string `yaml:"report_dir"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Synapse: SynapseConfig{
			Endpoint:     "https://repo-prod.prod.sagebase.org/repo/v1",
			Organization: "HTAN2Organization",
			AuthTokenEnv: "SYNAPSE_PAT",
		},
		Source: SourceConfig{
			RepoURL: "https://api.github.com/repos/ncihtan/htan2-data-model",
			Dir:     "schemas",
		},
		Binding: BindingConfig{
			DefaultTimeout:    10 * time.Minute,
			ExtendedTimeout:   30 * time.Minute,
			LargeSchemas:      []string{"scRNALevel3_4"},
			Workers:           2,
			MaxAttempts:       3,
			BackoffBase:       5 * time.Second,
			BackoffMultiplier: 2.0,
			MaxBackoff:        2 * time.Minute,
		},
		Paths: PathsConfig{
			FolderStructure: "folder_structure.yml",
			BindingConfig:   "schema_binding_config.yml",
			ReportDir:       ".",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Synapse.Endpoint == "" {
		return fmt.Errorf("synapse.endpoint is required")
	}
	if c.Synapse.Organization == "" {
		return fmt.Errorf("synapse.organization is required")
	}
	if c.Source.RepoURL == "" && c.Source.LocalPath == "" {
		return fmt.Errorf("source.repo_url or source.local_path is required")
	}
	if c.Binding.MaxAttempts < 1 {
		return fmt.Errorf("binding.max_attempts must be at least 1")
	}
	if c.Binding.Workers < 0 {
		return fmt.Errorf("binding.workers must not be negative")
	}
	if c.Binding.DefaultTimeout <= 0 || c.Binding.ExtendedTimeout <= 0 {
		return fmt.Errorf("binding timeouts must be positive")
	}
	return nil
}

// AuthToken resolves the platform access token from the environment
func (c *Config) AuthToken() string {
	if c.Synapse.AuthTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Synapse.AuthTokenEnv)
}

// LoadFromFile loads configuration from a YAML file
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

// SaveToFile saves configuration to a YAML file
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

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Synapse
	if other.Synapse.Endpoint != "" {
		c.Synapse.Endpoint = other.Synapse.Endpoint
	}
	if other.Synapse.Organization != "" {
		c.Synapse.Organization = other.Synapse.Organization
	}
	if other.Synapse.AuthTokenEnv != "" {
		c.Synapse.AuthTokenEnv = other.Synapse.AuthTokenEnv
	}
	if other.Synapse.EnableDerivedAnnotations {
		c.Synapse.EnableDerivedAnnotations = true
	}

	// Source
	if other.Source.RepoURL != "" {
		c.Source.RepoURL = other.Source.RepoURL
	}
	if other.Source.Dir != "" {
		c.Source.Dir = other.Source.Dir
	}
	if other.Source.LocalPath != "" {
		c.Source.LocalPath = other.Source.LocalPath
	}

	// Binding
	if other.Binding.DefaultTimeout != 0 {
		c.Binding.DefaultTimeout = other.Binding.DefaultTimeout
	}
	if other.Binding.ExtendedTimeout != 0 {
		c.Binding.ExtendedTimeout = other.Binding.ExtendedTimeout
	}
	if len(other.Binding.LargeSchemas) > 0 {
		c.Binding.LargeSchemas = other.Binding.LargeSchemas
	}
	if other.Binding.Workers != 0 {
		c.Binding.Workers = other.Binding.Workers
	}
	if other.Binding.MaxAttempts != 0 {
		c.Binding.MaxAttempts = other.Binding.MaxAttempts
	}
	if other.Binding.BackoffBase != 0 {
		c.Binding.BackoffBase = other.Binding.BackoffBase
	}
	if other.Binding.BackoffMultiplier != 0 {
		c.Binding.BackoffMultiplier = other.Binding.BackoffMultiplier
	}
	if other.Binding.MaxBackoff != 0 {
		c.Binding.MaxBackoff = other.Binding.MaxBackoff
	}

	// Paths
	if other.Paths.FolderStructure != "" {
		c.Paths.FolderStructure = other.Paths.FolderStructure
	}
	if other.Paths.BindingConfig != "" {
		c.Paths.BindingConfig = other.Paths.BindingConfig
	}
	if other.Paths.ReportDir != "" {
		c.Paths.ReportDir = other.Paths.ReportDir
	}
}
