// Package medium defines the durable synchronous string key-value backend
// that the hosting runtime supplies to the persistent store. The store treats
// it as an injected capability: the medium outlives any store instance and is
// shared by every namespace in the process.
package medium

import "errors"

// ErrCapacityExceeded is returned by Set when the medium rejects a write
// because its storage quota is exhausted.
var ErrCapacityExceeded = errors.New("medium capacity exceeded")

// Medium is a durable, synchronous, string-only key-value store. All
// operations run to completion on the caller's goroutine.
type Medium interface {
	// Get returns the value under key and whether the key is set.
	Get(key string) (string, bool, error)

	// Set writes value under key, overwriting any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys lists every key starting with prefix, in lexicographic order.
	Keys(prefix string) ([]string, error)
}
