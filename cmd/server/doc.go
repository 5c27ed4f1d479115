// Package main runs the snapper kernel behind the demo host surface of
// internal/hostapi.
//
// On start it loads configuration, builds the kernel, registers every app
// that discovery finds under the configured directories, and serves the
// host HTTP API and WebSocket stream.
//
// The server provides:
//   - REST API for app discovery, activation, suspension and unloading
//   - an endpoint that emits host lifecycle events into the Hook Router
//   - a WebSocket stream of façade toasts and prompt-context injections
//
// Configuration:
//   - Environment variables (12-factor)
//   - a TOML file given with -config, read instead of the environment
//
// Usage:
//
//	# Listen on the default address (:8080), configured from the environment
//	./server
//
//	# Listen elsewhere, configured from a file
//	./server -addr :9000 -config snapper.toml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
