// Package manifest defines the on-disk shape of a SnApp descriptor
// (snap.json) and the closed enumerations the kernel validates it against:
// permission tags, lifecycle states, and hook names.
package manifest
