// Package cmd implements the loxspec CLI commands using Cobra.
//
// Available commands:
//   - run: Run the test corpus through the interpreter
//   - list: Show each test file with its expectations
//   - validate: Check test files for unreadable or conflicting annotations
//   - diff: Compare two JSON reports
//   - history: Show recorded runs
//   - init: Create a config file and an example test
//   - version: Show loxspec version information
//
// Flags default to LOXSPEC_* environment variables, which in turn override
// the project config file.
package cmd
