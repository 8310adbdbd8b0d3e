// Package memory provides a map-backed medium. It is the default backend for
// tests and single-process runs, with an optional entry capacity to exercise
// write-rejection paths the way a quota-limited runtime medium would.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"statebus/internal/medium"
)

type Medium struct {
	mu       sync.Mutex
	entries  map[string]string
	capacity int
}

type Option func(*Medium)

// WithCapacity bounds the number of entries the medium will hold. Writes to
// new keys beyond the bound fail with medium.ErrCapacityExceeded; overwrites
// of existing keys always succeed.
func WithCapacity(n int) Option {
	return func(m *Medium) {
		m.capacity = n
	}
}

func New(opts ...Option) *Medium {
	m := &Medium{
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Medium) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Medium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.capacity > 0 && len(m.entries) >= m.capacity {
		return fmt.Errorf("failed to set key %s: %w", key, medium.ErrCapacityExceeded)
	}
	m.entries[key] = value

	return nil
}

func (m *Medium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Medium) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

// Len reports the total entry count across all namespaces.
func (m *Medium) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}
