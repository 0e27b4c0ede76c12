package kv

import "errors"

// ErrLockAcquisition is returned when the synchronization primitive guarding
// a store cannot be acquired, e.g. because an earlier writer panicked while
// holding it. It is the only failure a Store reports.
var ErrLockAcquisition = errors.New("failed to acquire store lock")

// Store defines the interface for a key-value store.
// Implementations of this interface can be swapped out,
// allowing for different storage backends (e.g., in-memory, Raft-replicated).
type Store interface {
	// Get retrieves the value associated with the given key.
	// found is false if the key does not exist; a missing key is not an error.
	Get(key string) (value string, found bool, err error)

	// Set inserts or overwrites the value for key.
	Set(key, value string) error

	// Delete removes a key from the store.
	// Returns true only if a value was actually removed.
	Delete(key string) (bool, error)

	// Exists reports whether key currently has a value.
	Exists(key string) (bool, error)

	// Keys returns a snapshot of all keys at the time of the call.
	// Callers must not rely on the order.
	Keys() ([]string, error)

	// Flush removes every entry.
	Flush() error

	// Size returns the current number of entries.
	Size() (int, error)
}
