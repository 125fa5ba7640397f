// Package config handles configuration loading and management for loxspec.
//
// It provides functionality for:
//   - Loading configuration from .loxspec.yaml, loxspec.yaml or .loxspecrc
//   - Validating the file against an embedded JSON schema
//   - Default configuration values
//   - Merging configuration layers
package config
