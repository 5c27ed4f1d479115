// Package id provides typed, lexicographically-sortable ID generation via
// ULID: one generator shared by the Message Bus (RPC correlation ids) and
// the demo host's WebSocket hub (connection ids), each wrapped in its own
// string type so the two id spaces can't be mixed up at a call site.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies one Message Bus RPC call, for correlating its
// request and timeout/response log lines.
type RequestID string

// ConnID identifies one demo-host WebSocket connection.
type ConnID string

const (
	RequestPrefix = "req"
	ConnPrefix    = "conn"
)

// Generator generates prefixed ULIDs from a shared entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator used by NewRequestID/NewConnID.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator seeded from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a caller-supplied
// entropy source, for deterministic ids in tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string, e.g. "req_01H...".
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new Message Bus RPC correlation id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewConnID generates a new WebSocket connection id.
func NewConnID() ConnID {
	return ConnID(Default().GenerateWithPrefix(ConnPrefix))
}

func (id RequestID) String() string { return string(id) }
func (id ConnID) String() string    { return string(id) }

// IsValid reports whether raw is a well-formed ULID (prefix stripped by
// the caller, since prefixes are advisory and not part of the ULID text).
func IsValid(raw string) bool {
	_, err := ulid.Parse(raw)
	return err == nil
}
