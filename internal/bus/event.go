package bus

import "time"

// EventType tags an event with the kind of state change it describes.
// The set of types is closed: every type has exactly one payload variant
// and new kinds are added by extending the variant set below.
type EventType string

const (
	TaskCreated      EventType = "task:created"
	TaskUpdated      EventType = "task:updated"
	TaskDeleted      EventType = "task:deleted"
	ThemeChanged     EventType = "theme:changed"
	CategoryModified EventType = "category:modified"
	DataSync         EventType = "data:sync"

	// Published by the persistent store after every successful mutation.
	StorageChanged EventType = "storage:changed"
	StorageRemoved EventType = "storage:removed"
	StorageCleared EventType = "storage:cleared"
)

// Event is the immutable record delivered to subscribers. Payloads are
// snapshots taken at publish time; handlers must not mutate them.
type Event struct {
	// Type identifies the kind of event and fully determines the payload shape.
	Type EventType `json:"type"`
	// Payload carries the variant matching Type.
	Payload Payload `json:"payload"`
	// Timestamp is wall-clock milliseconds, stamped at publish time when zero.
	Timestamp int64 `json:"timestamp"`
	// Source names the publishing module. Diagnostics only, never routing.
	Source string `json:"source"`
}

// New builds an event for the given payload, deriving the type from the
// payload variant so the two can never disagree.
func New(payload Payload, source string) Event {
	return Event{
		Type:      payload.Kind(),
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		Source:    source,
	}
}

// Payload is the closed union of event payloads. Each variant reports the
// event type it belongs to; Publish enforces the pairing.
type Payload interface {
	Kind() EventType
}

// Task is the full task record carried by task:created.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Completed bool   `json:"completed"`
}

type TaskCreatedPayload struct {
	Task Task `json:"task"`
}

func (TaskCreatedPayload) Kind() EventType { return TaskCreated }

// TaskUpdatedPayload carries the task ID plus only the fields that changed.
type TaskUpdatedPayload struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

func (TaskUpdatedPayload) Kind() EventType { return TaskUpdated }

type TaskDeletedPayload struct {
	ID string `json:"id"`
}

func (TaskDeletedPayload) Kind() EventType { return TaskDeleted }

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ThemeChangedPayload struct {
	Theme Theme `json:"theme"`
}

func (ThemeChangedPayload) Kind() EventType { return ThemeChanged }

type CategoryAction string

const (
	CategoryAdd    CategoryAction = "add"
	CategoryRemove CategoryAction = "remove"
	CategoryUpdate CategoryAction = "update"
)

type CategoryModifiedPayload struct {
	Action   CategoryAction `json:"action"`
	Category string         `json:"category"`
}

func (CategoryModifiedPayload) Kind() EventType { return CategoryModified }

// DataSyncPayload asks every module to refresh from durable state.
type DataSyncPayload struct {
	Timestamp int64 `json:"timestamp"`
}

func (DataSyncPayload) Kind() EventType { return DataSync }

// StorageChangedPayload reports a successful write. Key is the logical
// (unprefixed) key.
type StorageChangedPayload struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (StorageChangedPayload) Kind() EventType { return StorageChanged }

type StorageRemovedPayload struct {
	Key string `json:"key"`
}

func (StorageRemovedPayload) Kind() EventType { return StorageRemoved }

type StorageClearedPayload struct {
	ClearedKeys int `json:"clearedKeys"`
}

func (StorageClearedPayload) Kind() EventType { return StorageCleared }
