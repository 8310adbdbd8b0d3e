package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMedium(t *testing.T) *Medium {
	t.Helper()

	m, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	return m
}

func TestMedium_SetGetRemove(t *testing.T) {
	m := openMedium(t)

	_, ok, err := m.Get("k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Set("k", `"v1"`))
	require.NoError(t, m.Set("k", `"v2"`))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"v2"`, v)

	require.NoError(t, m.Remove("k"))
	require.NoError(t, m.Remove("k"))

	_, ok, err = m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMedium_KeysFiltersByPrefixInOrder(t *testing.T) {
	m := openMedium(t)

	require.NoError(t, m.Set("a::2", "x"))
	require.NoError(t, m.Set("a::1", "x"))
	require.NoError(t, m.Set("b::1", "x"))
	// Wildcard characters in keys must not widen a prefix match.
	require.NoError(t, m.Set("a%%::3", "x"))

	keys, err := m.Keys("a::")
	require.NoError(t, err)
	assert.Equal(t, []string{"a::1", "a::2"}, keys)
}

func TestMedium_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Set("k", "durable"))
	require.NoError(t, m.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", v)
}
