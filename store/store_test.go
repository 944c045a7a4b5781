package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := New(path)

	assert.Empty(t, s.LastRoom(), "missing file is not an error")

	require.NoError(t, s.SaveLastRoom("room-a"))
	assert.Equal(t, "room-a", s.LastRoom())

	require.NoError(t, s.SaveLastRoom("room-b"))
	assert.Equal(t, "room-b", s.LastRoom())
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(path)
	assert.Empty(t, s.LastRoom())
}

func TestStore_NilSafe(t *testing.T) {
	var s *Store
	assert.Empty(t, s.LastRoom())
	assert.NoError(t, s.SaveLastRoom("room-a"))
}
