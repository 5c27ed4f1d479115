// Package registry discovers SnApps on disk, validates their manifests, and
// holds the resulting catalog of Registered Apps.
//
// Grounded on internal/domain/registry.Manager (cache-then-disk
// package store) and internal/domain/registry.Seeder (directory walk that
// silently skips missing directories and accumulates per-file failures
// instead of aborting).
package registry
