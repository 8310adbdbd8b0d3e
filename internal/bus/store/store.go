// Package store implements the namespaced persistent store: a typed facade
// over the durable string medium that announces every successful mutation on
// the event channel.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"statebus/internal/bus"
	"statebus/internal/medium"
	"statebus/internal/validator"
)

// Config is fixed at construction time. Zero fields fall back to the package
// defaults: bus.DefaultPrefix and the JSON serializer pair.
type Config struct {
	Prefix      string
	Serialize   bus.SerializeFunc
	Deserialize bus.DeserializeFunc
}

// Store is the core bus.Store implementation. The medium is shared across
// every namespace in the process; the prefix is the only isolation between
// store instances, so two stores with the same prefix alias each other's
// entries by design.
type Store struct {
	prefix      string
	serialize   bus.SerializeFunc
	deserialize bus.DeserializeFunc

	medium    medium.Medium
	publisher bus.Publisher
	logger    *zap.Logger
}

func New(config Config, m medium.Medium, publisher bus.Publisher, logger *zap.Logger) (*Store, error) {
	if config.Prefix == "" {
		config.Prefix = bus.DefaultPrefix
	}
	if config.Serialize == nil {
		config.Serialize = bus.JSONSerialize
	}
	if config.Deserialize == nil {
		config.Deserialize = bus.JSONDeserialize
	}

	s := Store{
		prefix:      config.Prefix,
		serialize:   config.Serialize,
		deserialize: config.Deserialize,
		medium:      m,
		publisher:   publisher,
		logger:      logger,
	}

	if err := validator.Validate("store", s.medium, s.publisher, s.logger); err != nil {
		return nil, fmt.Errorf("failed to validate store deps: %w", err)
	}

	return &s, nil
}

// Prefix returns the namespace prefix this store was configured with.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) Get(key string) (any, bool) {
	entryKey := bus.EntryKey(s.prefix, key)

	raw, ok, err := s.medium.Get(entryKey)
	if err != nil {
		s.logger.Error("failed to read from medium",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	v, err := s.deserialize(raw)
	if err != nil {
		// Corruption or schema drift degrades to an absent value instead of
		// failing the caller.
		s.logger.Error("failed to deserialize stored value",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		return nil, false
	}

	return v, true
}

func (s *Store) Set(key string, value any) error {
	entryKey := bus.EntryKey(s.prefix, key)

	raw, err := s.serialize(value)
	if err != nil {
		s.logger.Error("failed to serialize value",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		return fmt.Errorf("failed to serialize value for key %s: %w", key, err)
	}

	if err := s.medium.Set(entryKey, raw); err != nil {
		s.logger.Error("medium rejected write",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	s.announce(bus.StorageChangedPayload{Key: key, Value: value})

	return nil
}

func (s *Store) Remove(key string) error {
	entryKey := bus.EntryKey(s.prefix, key)

	if err := s.medium.Remove(entryKey); err != nil {
		s.logger.Error("failed to remove from medium",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}

	// Removal is idempotent: an absent key is still reported as removed.
	s.announce(bus.StorageRemovedPayload{Key: key})

	return nil
}

func (s *Store) Clear() (int, error) {
	keys, err := s.medium.Keys(s.prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate keys under %s: %w", s.prefix, err)
	}

	cleared := 0
	var errs []error
	for _, k := range keys {
		if err := s.medium.Remove(k); err != nil {
			s.logger.Error("failed to remove during clear",
				zap.String("key", k),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("failed to remove key %s: %w", k, err))
			continue
		}
		cleared++
	}

	s.announce(bus.StorageClearedPayload{ClearedKeys: cleared})

	return cleared, errors.Join(errs...)
}

func (s *Store) Exists(key string) bool {
	_, ok, err := s.medium.Get(bus.EntryKey(s.prefix, key))
	if err != nil {
		s.logger.Error("failed to read from medium",
			zap.String("key", bus.EntryKey(s.prefix, key)),
			zap.Error(err),
		)
		return false
	}

	return ok
}

func (s *Store) Keys() []string {
	keys, err := s.medium.Keys(s.prefix)
	if err != nil {
		s.logger.Error("failed to enumerate keys",
			zap.String("prefix", s.prefix),
			zap.Error(err),
		)
		return nil
	}

	return keys
}

func (s *Store) Size() int {
	return len(s.Keys())
}

func (s *Store) ExportAll() map[string]any {
	out := make(map[string]any)
	for _, entryKey := range s.Keys() {
		key := strings.TrimPrefix(entryKey, s.prefix)
		if v, ok := s.Get(key); ok {
			out[key] = v
		}
	}

	return out
}

func (s *Store) ImportAll(entries map[string]any) error {
	// Deterministic order; one failing entry never blocks the rest.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := s.Set(k, entries[k]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// announce publishes a storage event. The store has no awareness of
// subscribers; a publish failure is a diagnostic, not a storage fault.
func (s *Store) announce(payload bus.Payload) {
	event := bus.New(payload, "store:"+s.prefix)
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Error("failed to publish storage event",
			zap.String("eventType", string(event.Type)),
			zap.Error(err),
		)
	}
}
