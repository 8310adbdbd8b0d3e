package bus

import "encoding/json"

// DefaultPrefix namespaces stores that are not configured with their own
// prefix. Two stores sharing a prefix alias the same entries by design.
const DefaultPrefix = "state::"

// EntryKey builds the fully-namespaced medium key for a logical key.
func EntryKey(prefix, key string) string {
	return prefix + key
}

// SerializeFunc encodes a value into the string form held by the medium.
type SerializeFunc func(v any) (string, error)

// DeserializeFunc is the inverse of SerializeFunc.
type DeserializeFunc func(s string) (any, error)

// JSONSerialize is the default structural text encoding.
func JSONSerialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSONDeserialize is the inverse of JSONSerialize.
func JSONDeserialize(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Store provides typed access to a namespaced slice of the durable medium
// and announces every successful mutation on the event channel.
type Store interface {
	// Get returns the deserialized value under key, or (nil, false) when the
	// key is unset or its stored form cannot be deserialized. Corruption is
	// logged and degrades to an absent value rather than failing the caller.
	Get(key string) (any, bool)

	// Set serializes value and writes it under the namespaced key, then
	// publishes storage:changed. A rejected write is logged, returned as an
	// error, and publishes nothing.
	Set(key string, value any) error

	// Remove deletes the namespaced key and publishes storage:removed.
	// Removing an absent key succeeds and still publishes.
	Remove(key string) error

	// Clear deletes every key under the store's prefix, never keys outside
	// it, and publishes storage:cleared with the removed count.
	Clear() (int, error)

	// Exists reports whether key is set.
	Exists(key string) bool

	// Keys lists the fully-namespaced keys currently present, in order.
	Keys() []string

	// Size reports len(Keys()).
	Size() int

	// ExportAll maps every logical (unprefixed) key to its deserialized value.
	ExportAll() map[string]any

	// ImportAll calls Set for every entry. A failing entry does not prevent
	// attempts on the remaining entries; failures are collected and returned.
	ImportAll(entries map[string]any) error
}
