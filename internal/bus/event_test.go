package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadKinds(t *testing.T) {
	cases := []struct {
		payload Payload
		want    EventType
	}{
		{TaskCreatedPayload{}, TaskCreated},
		{TaskUpdatedPayload{}, TaskUpdated},
		{TaskDeletedPayload{}, TaskDeleted},
		{ThemeChangedPayload{}, ThemeChanged},
		{CategoryModifiedPayload{}, CategoryModified},
		{DataSyncPayload{}, DataSync},
		{StorageChangedPayload{}, StorageChanged},
		{StorageRemovedPayload{}, StorageRemoved},
		{StorageClearedPayload{}, StorageCleared},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.payload.Kind())
	}
}

func TestNew(t *testing.T) {
	payload := ThemeChangedPayload{Theme: ThemeDark}

	e := New(payload, "preference-module")

	assert.Equal(t, ThemeChanged, e.Type, "type is derived from the payload variant")
	assert.Equal(t, payload, e.Payload)
	assert.Equal(t, "preference-module", e.Source)
	assert.NotZero(t, e.Timestamp)
}

func TestEntryKey(t *testing.T) {
	require.Equal(t, "tasks::42", EntryKey("tasks::", "42"))
	require.Equal(t, "state::theme", EntryKey(DefaultPrefix, "theme"))
}
