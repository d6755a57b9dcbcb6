// Package config loads and validates the bootstrapper configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration. All of it is supplied
// externally; nothing here is mutated after loading.
type Config struct {
	// Endpoint is the object store base URL, e.g. http://minio:9000.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Region   string `mapstructure:"region" yaml:"region"`

	// PathStyle forces path-style bucket addressing. MinIO needs it;
	// AWS and Hetzner use virtual-hosted style.
	PathStyle bool `mapstructure:"path_style" yaml:"path_style"`

	// Credentials. Normally supplied via S3INIT_ACCESS_KEY and
	// S3INIT_SECRET_KEY rather than the config file.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Policy is an inline bucket policy JSON document. PolicyFile points
	// at a file containing one. At most one may be set; with neither,
	// no policy step runs.
	Policy     string `mapstructure:"policy" yaml:"policy"`
	PolicyFile string `mapstructure:"policy_file" yaml:"policy_file"`

	// LivenessPath is appended to Endpoint for readiness probing.
	LivenessPath string `mapstructure:"liveness_path" yaml:"liveness_path"`

	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait" yaml:"max_wait"`

	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig bounds per-step retries.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint %q is not a valid URL", c.Endpoint)
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Policy != "" && c.PolicyFile != "" {
		return fmt.Errorf("policy and policy_file are mutually exclusive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.MaxWait <= c.PollInterval {
		return fmt.Errorf("max_wait (%s) must exceed poll_interval (%s)", c.MaxWait, c.PollInterval)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}

// LivenessURL returns the full liveness endpoint URL.
func (c *Config) LivenessURL() string {
	return strings.TrimRight(c.Endpoint, "/") + c.LivenessPath
}

// PolicyDocument returns the configured policy JSON, reading PolicyFile
// if set. Returns nil when no policy is configured.
func (c *Config) PolicyDocument() ([]byte, error) {
	if c.Policy != "" {
		return []byte(c.Policy), nil
	}
	if c.PolicyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return data, nil
}
