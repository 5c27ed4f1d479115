package store

import (
	"path/filepath"
	"regexp"
)

var unsafeChar = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitize replaces every character outside [A-Za-z0-9_-] with '_'. This
// is lossy by design: distinct keys can collide after
// sanitization, which is accepted because apps are expected to use sane
// keys.
func sanitize(s string) string {
	return unsafeChar.ReplaceAllString(s, "_")
}

func (s *Store) dir(namespace string) string {
	return filepath.Join(s.basePath, sanitize(namespace))
}

func (s *Store) jsonPath(namespace, key string) string {
	return filepath.Join(s.dir(namespace), sanitize(key)+".json")
}

func (s *Store) encPath(namespace, key string) string {
	return filepath.Join(s.dir(namespace), sanitize(key)+".enc")
}
