package storage

import (
	"fmt"
	"sort"
	"sync"

	"sessionkv/internal/clock"
)

// VersionedValue represents a value with the replica version that produced it.
type VersionedValue struct {
	Value   []byte
	Version clock.VersionVector
	Deleted bool // True if this is a tombstone (deleted)
}

// IsTombstone checks if this is a deletion tombstone.
func (vv *VersionedValue) IsTombstone() bool {
	return vv.Deleted
}

// copyValue returns a deep copy so callers never alias stored state.
func (vv *VersionedValue) copyValue() *VersionedValue {
	return &VersionedValue{
		Value:   append([]byte(nil), vv.Value...),
		Version: vv.Version.Copy(),
		Deleted: vv.Deleted,
	}
}

// Store defines the interface for a replica's key-value storage.
type Store interface {
	// Get retrieves a value by key. Returns nil if not found.
	// Tombstones are returned with Deleted set.
	Get(key string) *VersionedValue
	// Put stores value under key at the given version. The version must
	// dominate the version already stored for key.
	Put(key string, value []byte, version clock.VersionVector) error
	// Delete stores a tombstone for key at the given version.
	Delete(key string, version clock.VersionVector) error
	// Keys returns the stored keys, tombstones included, in sorted order.
	Keys() []string
}

// InMemoryStore is an in-memory implementation of Store.
// It's thread-safe.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]*VersionedValue
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]*VersionedValue),
	}
}

// Get retrieves a value by key.
func (s *InMemoryStore) Get(key string) *VersionedValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vv, exists := s.data[key]
	if !exists {
		return nil
	}

	// Return a copy to avoid external modifications
	return vv.copyValue()
}

// Put stores a value with the given version.
func (s *InMemoryStore) Put(key string, value []byte, version clock.VersionVector) error {
	return s.store(key, value, version, false)
}

// Delete stores a tombstone instead of removing the key.
func (s *InMemoryStore) Delete(key string, version clock.VersionVector) error {
	return s.store(key, nil, version, true)
}

// Keys returns all keys in sorted order.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *InMemoryStore) store(key string, value []byte, version clock.VersionVector, deleted bool) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if version == nil {
		return fmt.Errorf("put requires non-nil version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only overwrite if incoming dominates what is stored
	if existing, exists := s.data[key]; exists && !version.Dominates(existing.Version) {
		return fmt.Errorf("version %s does not dominate stored version %s for key %s",
			version, existing.Version, key)
	}

	var valueCopy []byte
	if !deleted {
		valueCopy = append([]byte(nil), value...)
	}
	s.data[key] = &VersionedValue{
		Value:   valueCopy,
		Version: version.Copy(),
		Deleted: deleted,
	}

	return nil
}
