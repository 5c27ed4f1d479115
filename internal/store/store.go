package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/monitoring"
	"go.uber.org/zap"
)

const dirMode = 0o700
const fileMode = 0o600

// Store is the State Store: namespaced key/value persistence with TTL,
// optional encryption, and an in-memory mirror authoritative for reads
// when present.
type Store struct {
	basePath  string
	encryptor Encryptor
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu     sync.Mutex
	memory map[string]map[string]*Entry // namespace -> key -> entry

	changeMu sync.Mutex
	changeID int
	changes  map[int]func(ChangeEvent)
}

// New creates a Store rooted at basePath. encryptor may be nil, in which
// case Persist calls with Encrypted: true are honored silently without
// encrypting.
func New(basePath string, encryptor Encryptor, logger *zap.Logger, metrics *monitoring.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		basePath:  basePath,
		encryptor: encryptor,
		logger:    logger,
		metrics:   metrics,
		memory:    make(map[string]map[string]*Entry),
		changes:   make(map[int]func(ChangeEvent)),
	}
}

func namespaceOr(namespace, appID string) string {
	if namespace == "" {
		return appID
	}
	return namespace
}

func (s *Store) memGet(namespace, key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.memory[namespace]
	if !ok {
		return nil, false
	}
	e, ok := ns[key]
	return e, ok
}

func (s *Store) memSet(namespace, key string, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memory[namespace] == nil {
		s.memory[namespace] = make(map[string]*Entry)
	}
	s.memory[namespace][key] = e
}

func (s *Store) memDelete(namespace, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory[namespace], key)
}

func (s *Store) memClearNamespace(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, namespace)
}

func (s *Store) recordOp(op string) {
	if s.metrics != nil {
		s.metrics.StoreOpsTotal.WithLabelValues(op).Inc()
	}
}

// Persist writes value under (namespace-or-appID, key), to the in-memory
// mirror and then to disk. Parent directories are created as needed; the
// file is written atomically via a sibling temp file and rename, with
// owner-only permissions. If opts.Encrypted is true and an Encryptor is
// configured, the serialized entry is encrypted before it reaches disk.
// If opts.Sync is true, a ChangeEvent is emitted to every OnChange
// subscriber before Persist returns.
func (s *Store) Persist(appID, key string, value interface{}, opts PersistOptions) error {
	s.recordOp("persist")
	namespace := namespaceOr(opts.Namespace, appID)

	now := time.Now()
	entry := &Entry{
		Value:     value,
		CreatedAt: now.UnixMilli(),
		Encrypted: opts.Encrypted,
		Version:   currentVersion,
	}
	if opts.TTL > 0 {
		expiry := now.Add(opts.TTL).UnixMilli()
		entry.ExpiresAt = &expiry
	}

	s.memSet(namespace, key, entry)

	if err := s.writeDisk(namespace, key, entry); err != nil {
		return fmt.Errorf("persist %s/%s: %w", namespace, key, err)
	}

	if opts.Sync {
		s.notifyChange(ChangeEvent{Namespace: namespace, Key: key, AppID: appID})
	}
	return nil
}

func (s *Store) writeDisk(namespace, key string, entry *Entry) error {
	dir := s.dir(namespace)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := s.jsonPath(namespace, key)
	if entry.Encrypted && s.encryptor != nil {
		ciphertext, err := s.encryptor.Encrypt(string(data))
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
		data = []byte(ciphertext)
		path = s.encPath(namespace, key)
		// Drop a stale unencrypted file for this key, if one exists from a
		// prior persist with Encrypted: false.
		_ = os.Remove(s.jsonPath(namespace, key))
	} else {
		_ = os.Remove(s.encPath(namespace, key))
	}

	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Restore returns the value stored under (namespace-or-appID, key), or
// def if no non-expired entry exists. It first consults the in-memory
// mirror; on a miss it falls back to disk, trying the .enc path before
// .json. Any I/O, decode, or decrypt failure is treated as a miss and
// returns def rather than propagating the failure.
func (s *Store) Restore(appID, key string, def interface{}, namespace string) interface{} {
	s.recordOp("restore")
	namespace = namespaceOr(namespace, appID)
	now := time.Now()

	if e, ok := s.memGet(namespace, key); ok {
		if e.expired(now) {
			s.memDelete(namespace, key)
			return def
		}
		return e.Value
	}

	entry, err := s.readDisk(namespace, key)
	if err != nil {
		return def
	}
	if entry.expired(now) {
		return def
	}
	if entry.Version != currentVersion {
		s.logger.Warn("state entry version mismatch",
			zap.String("namespace", namespace), zap.String("key", key),
			zap.Int("version", entry.Version))
	}

	s.memSet(namespace, key, entry)
	return entry.Value
}

func (s *Store) readDisk(namespace, key string) (*Entry, error) {
	encPath := s.encPath(namespace, key)
	if data, err := os.ReadFile(encPath); err == nil {
		return s.decodeEntry(namespace, key, data, true)
	}

	jsonPath := s.jsonPath(namespace, key)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	return s.decodeEntry(namespace, key, data, false)
}

func (s *Store) decodeEntry(namespace, key string, data []byte, wasEncrypted bool) (*Entry, error) {
	if wasEncrypted {
		if s.encryptor == nil {
			return nil, &kernelerrors.CorruptEntryError{Namespace: namespace, Key: key, Cause: fmt.Errorf("no decryptor configured")}
		}
		plaintext, err := s.encryptor.Decrypt(string(data))
		if err != nil {
			return nil, &kernelerrors.CorruptEntryError{Namespace: namespace, Key: key, Cause: err}
		}
		data = []byte(plaintext)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &kernelerrors.CorruptEntryError{Namespace: namespace, Key: key, Cause: err}
	}
	return &entry, nil
}

// Remove deletes the memory entry and both possible disk files for
// (namespace-or-appID, key). Missing files are not an error.
func (s *Store) Remove(appID, key, namespace string) error {
	s.recordOp("remove")
	namespace = namespaceOr(namespace, appID)
	s.memDelete(namespace, key)

	if err := removeIfExists(s.jsonPath(namespace, key)); err != nil {
		return err
	}
	return removeIfExists(s.encPath(namespace, key))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListKeys enumerates the namespace directory, strips the .json/.enc
// extension, and returns only keys whose entry is not expired. A missing
// directory yields an empty list, not an error.
func (s *Store) ListKeys(appID, namespace string) ([]string, error) {
	s.recordOp("list_keys")
	namespace = namespaceOr(namespace, appID)

	keys, err := s.scanKeys(namespace)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	now := time.Now()
	var live []string
	for _, key := range keys {
		entry, err := s.loadAny(namespace, key)
		if err != nil {
			continue
		}
		if !entry.expired(now) {
			live = append(live, key)
		}
	}
	sort.Strings(live)
	return live, nil
}

// loadAny returns the entry for key preferring the in-memory mirror, then
// disk, without caching the result (used by ListKeys/ClearExpired/GetStats
// which each want a fresh view without perturbing the mirror's contents).
func (s *Store) loadAny(namespace, key string) (*Entry, error) {
	if e, ok := s.memGet(namespace, key); ok {
		return e, nil
	}
	return s.readDisk(namespace, key)
}

func (s *Store) scanKeys(namespace string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(namespace))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, e := range entries {
		name := e.Name()
		var key string
		switch {
		case strings.HasSuffix(name, ".json"):
			key = strings.TrimSuffix(name, ".json")
		case strings.HasSuffix(name, ".enc"):
			key = strings.TrimSuffix(name, ".enc")
		default:
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

// Clear drops the memory namespace and recursively removes its directory.
// A missing directory is not an error.
func (s *Store) Clear(appID, namespace string) error {
	s.recordOp("clear")
	namespace = namespaceOr(namespace, appID)
	s.memClearNamespace(namespace)
	if err := os.RemoveAll(s.dir(namespace)); err != nil {
		return err
	}
	return nil
}

// ClearExpired enumerates every entry in the namespace, without the
// expiration filtering ListKeys applies, and removes every expired one. It
// is the store's sole compaction entry point; there is no background
// sweeper.
func (s *Store) ClearExpired(appID, namespace string) (int, error) {
	namespace = namespaceOr(namespace, appID)
	keys, err := s.scanKeys(namespace)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now()
	removed := 0
	for _, key := range keys {
		entry, err := s.loadAny(namespace, key)
		if err != nil {
			continue
		}
		if entry.expired(now) {
			if err := s.Remove(appID, key, namespace); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if s.metrics != nil && removed > 0 {
		s.metrics.StoreExpiredTotal.Add(float64(removed))
	}
	return removed, nil
}

// GetStats computes aggregate statistics over the namespace's currently
// visible entries.
func (s *Store) GetStats(appID, namespace string) (Stats, error) {
	namespace = namespaceOr(namespace, appID)
	keys, err := s.ListKeys(appID, namespace)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	now := time.Now()
	for _, key := range keys {
		entry, err := s.loadAny(namespace, key)
		if err != nil {
			continue
		}
		if entry.expired(now) {
			stats.ExpiredEntries++
			continue
		}
		stats.TotalEntries++
		if size, err := entrySize(entry); err == nil {
			stats.TotalSize += size
		}
		created := time.UnixMilli(entry.CreatedAt)
		if stats.OldestEntry == nil || created.Before(*stats.OldestEntry) {
			stats.OldestEntry = &created
		}
		if stats.NewestEntry == nil || created.After(*stats.NewestEntry) {
			stats.NewestEntry = &created
		}
	}
	return stats, nil
}

func entrySize(entry *Entry) (int64, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// OnChange subscribes handler to Change Events emitted by Persist calls
// made with Sync: true. It returns an unsubscribe closure.
func (s *Store) OnChange(handler func(ChangeEvent)) (unsubscribe func()) {
	s.changeMu.Lock()
	s.changeID++
	id := s.changeID
	s.changes[id] = handler
	s.changeMu.Unlock()

	return func() {
		s.changeMu.Lock()
		delete(s.changes, id)
		s.changeMu.Unlock()
	}
}

func (s *Store) notifyChange(event ChangeEvent) {
	s.changeMu.Lock()
	handlers := make([]func(ChangeEvent), 0, len(s.changes))
	for _, h := range s.changes {
		handlers = append(handlers, h)
	}
	s.changeMu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}
