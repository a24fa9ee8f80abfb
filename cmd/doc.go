// Package cmd implements the command-line interface for gridlock. It
// provides a small command tree around the lib/grid spatial grid
// lock: a benchmark tool and a diagnostics server.
//
// The package is organized into several subpackages:
//
//   - bench: benchmarks region lock throughput under contention
//   - serve: runs an HTTP server exposing a shared grid's metrics and worker diagnostics
//   - internal/config: shared viper/godotenv wiring (internal use)
//
// See gridlock -help for a list of all commands.
package cmd
