// Package store implements the State Store: namespaced key/value
// persistence with TTL, optional encryption, and an in-memory mirror
// that is authoritative for reads while present.
//
// Grounded on internal/session.Manager and
// internal/domain/registry.Manager for the cache-then-disk read order and
// JSON-marshal-to-file persistence shape, generalized from a single
// hardcoded record type to an arbitrary namespace/key/value store with
// TTL and pluggable encryption.
package store
