package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the loxspec configuration
type Config struct {
	Interpreter string        `yaml:"interpreter,omitempty" json:"interpreter,omitempty"`
	TestDir     string        `yaml:"testDir,omitempty" json:"testDir,omitempty"`
	Extensions  []string      `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Timeout     string        `yaml:"timeout,omitempty" json:"timeout,omitempty"` // duration string, e.g. 5s
	Parallel    *bool         `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Rate        float64       `yaml:"rate,omitempty" json:"rate,omitempty"` // interpreter launches per second
	Bail        *bool         `yaml:"bail,omitempty" json:"bail,omitempty"`
	Verbose     *bool         `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoColor     *bool         `yaml:"noColor,omitempty" json:"noColor,omitempty"`
	Output      string        `yaml:"output,omitempty" json:"output,omitempty"`
	EnvFile     string        `yaml:"envFile,omitempty" json:"envFile,omitempty"`
	WorkDir     string        `yaml:"workDir,omitempty" json:"workDir,omitempty"`
	History     string        `yaml:"history,omitempty" json:"history,omitempty"` // history database DSN
	Notify      *NotifyConfig `yaml:"notify,omitempty" json:"notify,omitempty"`
}

// NotifyConfig configures run notifications
type NotifyConfig struct {
	Service      string `yaml:"service,omitempty" json:"service,omitempty"`
	On           string `yaml:"on,omitempty" json:"on,omitempty"`
	SlackWebhook string `yaml:"slackWebhook,omitempty" json:"slackWebhook,omitempty"`
	SlackChannel string `yaml:"slackChannel,omitempty" json:"slackChannel,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout parses the timeout setting
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.Timeout)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".loxspec.yaml",
	"loxspec.yaml",
	".loxspecrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a YAML document and decodes it over the defaults
func Parse(data []byte) (*Config, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	parsed := &Config{}
	if err := yaml.Unmarshal(data, parsed); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg := DefaultConfig().Merge(parsed)
	if _, err := cfg.GetTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Interpreter != "" {
		result.Interpreter = other.Interpreter
	}
	if other.TestDir != "" {
		result.TestDir = other.TestDir
	}
	if len(other.Extensions) > 0 {
		result.Extensions = append([]string(nil), other.Extensions...)
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.WorkDir != "" {
		result.WorkDir = other.WorkDir
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if other.Notify != nil {
		merged := NotifyConfig{}
		if result.Notify != nil {
			merged = *result.Notify
		}
		if other.Notify.Service != "" {
			merged.Service = other.Notify.Service
		}
		if other.Notify.On != "" {
			merged.On = other.Notify.On
		}
		if other.Notify.SlackWebhook != "" {
			merged.SlackWebhook = other.Notify.SlackWebhook
		}
		if other.Notify.SlackChannel != "" {
			merged.SlackChannel = other.Notify.SlackChannel
		}
		result.Notify = &merged
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
