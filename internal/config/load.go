package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding credential material. Credentials are
// kept out of config files so the file can be committed alongside the
// compose stack.
const (
	EnvAccessKey = "S3INIT_ACCESS_KEY"
	EnvSecretKey = "S3INIT_SECRET_KEY"
)

// LoadFile reads and parses the configuration from a YAML file, applies
// defaults and environment overrides, and validates the result.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(rawConfig); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration defaults applied before file values.
func Default() *Config {
	return &Config{
		Region:       "us-east-1",
		PathStyle:    true,
		LivenessPath: "/minio/health/live",
		PollInterval: 2 * time.Second,
		MaxWait:      60 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAccessKey); v != "" {
		cfg.AccessKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		cfg.SecretKey = v
	}
}
