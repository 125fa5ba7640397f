// Package env assembles the environment the interpreter under test runs in.
//
// It provides functionality for:
//   - Loading .env files (KEY=value, quoted values, comments, export prefix)
//   - Merging file variables over the inherited process environment
package env
