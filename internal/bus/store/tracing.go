package store

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"statebus/internal/bus"
	"statebus/internal/bus/tracing"
)

// TracedStore wraps a bus.Store with tracing.
// Layer order: TracedStore -> MetricsStore -> Store (real thing)
type TracedStore struct {
	store  bus.Store
	prefix string
	tracer *tracing.Tracer
}

// NewTracedStore creates a new traced store that wraps a metrics store
func NewTracedStore(store bus.Store, prefix string, tracer *tracing.Tracer) bus.Store {
	return &TracedStore{
		store:  store,
		prefix: prefix,
		tracer: tracer,
	}
}

func (s *TracedStore) span(name, operation, key string) (context.Context, func(error)) {
	ctx, sp := s.tracer.StartSpan(context.Background(), name)
	sp.SetAttributes(s.tracer.StoreAttributes(s.prefix, operation, key)...)

	return ctx, func(err error) {
		if err != nil {
			s.tracer.RecordError(ctx, err)
		} else {
			sp.SetStatus(codes.Ok, "")
		}
		sp.SetAttributes(s.tracer.ErrorAttributes(err)...)
		sp.End()
	}
}

// Get implements bus.Store.Get with tracing
func (s *TracedStore) Get(key string) (any, bool) {
	_, end := s.span("store.get", "get", key)
	v, ok := s.store.Get(key)
	end(nil)

	return v, ok
}

// Set implements bus.Store.Set with tracing
func (s *TracedStore) Set(key string, value any) error {
	_, end := s.span("store.set", "set", key)
	err := s.store.Set(key, value)
	end(err)

	return err
}

// Remove implements bus.Store.Remove with tracing
func (s *TracedStore) Remove(key string) error {
	_, end := s.span("store.remove", "remove", key)
	err := s.store.Remove(key)
	end(err)

	return err
}

// Clear implements bus.Store.Clear with tracing
func (s *TracedStore) Clear() (int, error) {
	_, end := s.span("store.clear", "clear", "")
	cleared, err := s.store.Clear()
	end(err)

	return cleared, err
}

// Exists implements bus.Store.Exists
func (s *TracedStore) Exists(key string) bool {
	return s.store.Exists(key)
}

// Keys implements bus.Store.Keys
func (s *TracedStore) Keys() []string {
	return s.store.Keys()
}

// Size implements bus.Store.Size
func (s *TracedStore) Size() int {
	return s.store.Size()
}

// ExportAll implements bus.Store.ExportAll with tracing
func (s *TracedStore) ExportAll() map[string]any {
	_, end := s.span("store.export", "export", "")
	out := s.store.ExportAll()
	end(nil)

	return out
}

// ImportAll implements bus.Store.ImportAll with tracing
func (s *TracedStore) ImportAll(entries map[string]any) error {
	_, end := s.span("store.import", "import", "")
	err := s.store.ImportAll(entries)
	end(err)

	return err
}
