package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statebus/internal/medium"
)

func TestMedium_SetGetRemove(t *testing.T) {
	m := New()

	_, ok, err := m.Get("k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Set("k", "v1"))
	require.NoError(t, m.Set("k", "v2"))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, m.Remove("k"))
	require.NoError(t, m.Remove("k"), "removing an absent key is not an error")

	_, ok, err = m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMedium_KeysFiltersByPrefixInOrder(t *testing.T) {
	m := New()

	require.NoError(t, m.Set("a::2", "x"))
	require.NoError(t, m.Set("a::1", "x"))
	require.NoError(t, m.Set("b::1", "x"))

	keys, err := m.Keys("a::")
	require.NoError(t, err)
	assert.Equal(t, []string{"a::1", "a::2"}, keys)

	all, err := m.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a::1", "a::2", "b::1"}, all)
}

func TestMedium_CapacityRejectsNewKeys(t *testing.T) {
	m := New(WithCapacity(2))

	require.NoError(t, m.Set("a", "1"))
	require.NoError(t, m.Set("b", "2"))

	err := m.Set("c", "3")
	assert.ErrorIs(t, err, medium.ErrCapacityExceeded)

	assert.NoError(t, m.Set("a", "overwrite"), "overwriting an existing key never counts against capacity")

	require.NoError(t, m.Remove("b"))
	assert.NoError(t, m.Set("c", "3"), "capacity frees up after removal")
	assert.Equal(t, 2, m.Len())
}
