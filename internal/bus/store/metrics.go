package store

import (
	"time"

	"statebus/internal/bus"
	"statebus/internal/bus/metrics"
)

// MetricsStore wraps a bus.Store with metrics collection
type MetricsStore struct {
	store    bus.Store
	prefix   string
	registry *metrics.Registry
}

// NewMetricsStore creates a new instrumented store
func NewMetricsStore(store bus.Store, prefix string, registry *metrics.Registry) bus.Store {
	return &MetricsStore{
		store:    store,
		prefix:   prefix,
		registry: registry,
	}
}

// Get implements bus.Store.Get with metrics collection
func (s *MetricsStore) Get(key string) (any, bool) {
	start := time.Now()
	v, ok := s.store.Get(key)
	s.registry.RecordStoreOperation(s.prefix, "get", time.Since(start), nil)

	return v, ok
}

// Set implements bus.Store.Set with metrics collection
func (s *MetricsStore) Set(key string, value any) error {
	start := time.Now()
	err := s.store.Set(key, value)
	s.registry.RecordStoreOperation(s.prefix, "set", time.Since(start), err)
	s.registry.SetStoreKeys(s.prefix, float64(s.store.Size()))

	return err
}

// Remove implements bus.Store.Remove with metrics collection
func (s *MetricsStore) Remove(key string) error {
	start := time.Now()
	err := s.store.Remove(key)
	s.registry.RecordStoreOperation(s.prefix, "remove", time.Since(start), err)
	s.registry.SetStoreKeys(s.prefix, float64(s.store.Size()))

	return err
}

// Clear implements bus.Store.Clear with metrics collection
func (s *MetricsStore) Clear() (int, error) {
	start := time.Now()
	cleared, err := s.store.Clear()
	s.registry.RecordStoreOperation(s.prefix, "clear", time.Since(start), err)
	s.registry.SetStoreKeys(s.prefix, float64(s.store.Size()))

	return cleared, err
}

// Exists implements bus.Store.Exists
func (s *MetricsStore) Exists(key string) bool {
	return s.store.Exists(key)
}

// Keys implements bus.Store.Keys
func (s *MetricsStore) Keys() []string {
	return s.store.Keys()
}

// Size implements bus.Store.Size
func (s *MetricsStore) Size() int {
	return s.store.Size()
}

// ExportAll implements bus.Store.ExportAll with metrics collection
func (s *MetricsStore) ExportAll() map[string]any {
	start := time.Now()
	out := s.store.ExportAll()
	s.registry.RecordStoreOperation(s.prefix, "export", time.Since(start), nil)

	return out
}

// ImportAll implements bus.Store.ImportAll with metrics collection
func (s *MetricsStore) ImportAll(entries map[string]any) error {
	start := time.Now()
	err := s.store.ImportAll(entries)
	s.registry.RecordStoreOperation(s.prefix, "import", time.Since(start), err)
	s.registry.SetStoreKeys(s.prefix, float64(s.store.Size()))

	return err
}
