package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/heysubinoy/minidis/pkg/kv"
)

// MemStore is an in-memory implementation of the kv.Store interface.
// It uses a map protected by a RWMutex for thread-safe operations.
//
// A panic raised while the write lock is held poisons the store: the map may
// be half-updated, so every later operation fails with kv.ErrLockAcquisition.
type MemStore struct {
	mu       sync.RWMutex
	data     map[string]string
	poisoned atomic.Bool
}

// Compile-time check to ensure MemStore implements kv.Store.
var _ kv.Store = (*MemStore)(nil)

// NewMemStore creates and returns a new MemStore instance.
func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key from the store.
// Returns the value and true if found, empty string and false otherwise.
func (s *MemStore) Get(key string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := s.read("get", func(data map[string]string) {
		val, ok = data[key]
	})
	return val, ok, err
}

// Set stores a key-value pair in the store, overwriting any previous value.
func (s *MemStore) Set(key, value string) error {
	return s.write("set", func(data map[string]string) {
		data[key] = value
	})
}

// Delete removes a key from the store and reports whether it was present.
func (s *MemStore) Delete(key string) (bool, error) {
	var removed bool
	err := s.write("delete", func(data map[string]string) {
		_, removed = data[key]
		delete(data, key)
	})
	return removed, err
}

// Exists reports whether key is present.
func (s *MemStore) Exists(key string) (bool, error) {
	var ok bool
	err := s.read("exists", func(data map[string]string) {
		_, ok = data[key]
	})
	return ok, err
}

// Keys returns every key, sorted. The result is a copy taken under the read
// lock and may be stale by the time the caller uses it.
func (s *MemStore) Keys() ([]string, error) {
	var keys []string
	err := s.read("keys", func(data map[string]string) {
		keys = slices.AppendSeq(make([]string, 0, len(data)), maps.Keys(data))
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

// Flush removes all entries.
func (s *MemStore) Flush() error {
	return s.write("flush", func(data map[string]string) {
		clear(data)
	})
}

// Size returns the number of entries.
func (s *MemStore) Size() (int, error) {
	var n int
	err := s.read("size", func(data map[string]string) {
		n = len(data)
	})
	return n, err
}

// Snapshot returns a copy of the whole mapping.
func (s *MemStore) Snapshot() (map[string]string, error) {
	var snap map[string]string
	err := s.read("snapshot", func(data map[string]string) {
		snap = maps.Clone(data)
	})
	return snap, err
}

// Restore replaces the mapping with data. The store keeps its own copy.
func (s *MemStore) Restore(data map[string]string) error {
	return s.write("restore", func(current map[string]string) {
		clear(current)
		maps.Copy(current, data)
	})
}

func (s *MemStore) read(op string, fn func(data map[string]string)) error {
	if s.poisoned.Load() {
		return lockError(op, "read")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.poisoned.Load() {
		return lockError(op, "read")
	}
	fn(s.data)
	return nil
}

func (s *MemStore) write(op string, fn func(data map[string]string)) error {
	if s.poisoned.Load() {
		return lockError(op, "write")
	}

	s.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			s.mu.Unlock()
			panic(r)
		}
		s.mu.Unlock()
	}()

	if s.poisoned.Load() {
		return lockError(op, "write")
	}
	fn(s.data)
	return nil
}

func lockError(op, mode string) error {
	return fmt.Errorf("%s: %w: %s lock poisoned", op, kv.ErrLockAcquisition, mode)
}
