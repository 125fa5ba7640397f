package config

import "time"

const (
	// DefaultInterpreter is the interpreter binary, relative to the working directory
	DefaultInterpreter = "./clox"
	// DefaultTestDir is where test files are discovered
	DefaultTestDir = "test/integration"
	// DefaultTimeout bounds a single interpreter run
	DefaultTimeout = 5 * time.Second
	// DefaultConcurrency is the worker count in parallel mode
	DefaultConcurrency = 4
)

// DefaultExtensions are the test file extensions
var DefaultExtensions = []string{".lox"}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Interpreter: DefaultInterpreter,
		TestDir:     DefaultTestDir,
		Extensions:  append([]string(nil), DefaultExtensions...),
		Timeout:     DefaultTimeout.String(),
		Concurrency: DefaultConcurrency,
		Output:      "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Interpreter == defaults.Interpreter &&
		c.TestDir == defaults.TestDir &&
		len(c.Extensions) == 1 && c.Extensions[0] == defaults.Extensions[0] &&
		c.Timeout == defaults.Timeout &&
		c.Concurrency == defaults.Concurrency &&
		c.Rate == 0 &&
		c.Output == defaults.Output &&
		c.EnvFile == "" &&
		c.WorkDir == "" &&
		c.History == "" &&
		c.Notify == nil &&
		c.Parallel == nil &&
		c.Bail == nil &&
		c.Verbose == nil &&
		c.NoColor == nil
}
