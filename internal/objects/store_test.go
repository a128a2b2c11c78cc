package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/mygit/internal/cas"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("line one\nline two\n"),
		{0x00, 0xff, 0x10},
	}

	store := NewStore(cas.NewMemoryCAS())
	for _, in := range inputs {
		hash, err := store.Put(in)
		require.NoError(t, err)
		assert.Equal(t, cas.SumB3(in), hash)

		got, ok, err := store.Get(hash)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, in, got)
	}
}

func TestStore_PutIsIdempotent(t *testing.T) {
	backend := cas.NewMemoryCAS()
	store := NewStore(backend)

	h1, err := store.Put([]byte("same"))
	require.NoError(t, err)
	h2, err := store.Put([]byte("same"))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, backend.Len())
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(cas.NewMemoryCAS())

	data, ok, err := store.Get(cas.SumB3([]byte("absent")))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	_, err = store.MustGet(cas.SumB3([]byte("absent")))
	assert.ErrorIs(t, err, cas.ErrNotFound)
}

func TestStore_FileBackend(t *testing.T) {
	backend, err := cas.NewFileCAS(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	store := NewStore(backend)
	hash, err := store.Put([]byte("persisted"))
	require.NoError(t, err)

	got, ok, err := store.Get(hash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(got))
}
