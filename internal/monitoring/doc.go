// Package monitoring exposes Prometheus counters and histograms for the
// kernel's core services: registry size, lifecycle transitions, hook
// dispatch, bus publish/request traffic, and state store operations.
package monitoring
