package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/store"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "mygit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestStageAndSnapshot(t *testing.T) {
	ix := newTestIndex(t)

	empty, err := ix.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	a := cas.SumB3([]byte("a"))
	b := cas.SumB3([]byte("b"))
	require.NoError(t, ix.Stage("src/a.go", a))
	require.NoError(t, ix.Stage("b.txt", b))
	require.NoError(t, ix.Stage("src/a.go", b))

	snap, err := ix.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string]cas.Hash{"src/a.go": b, "b.txt": b}, snap)

	paths, err := ix.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "src/a.go"}, paths)

	h, ok, err := ix.Lookup("b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, b, h)
}

func TestUnstage(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.Stage("a", cas.SumB3([]byte("a"))))

	require.NoError(t, ix.Unstage("a"))
	require.NoError(t, ix.Unstage("never-staged"))

	_, ok, err := ix.Lookup("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceAndClear(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.Stage("old", cas.SumB3([]byte("old"))))

	next := map[string]cas.Hash{"x": cas.SumB3([]byte("x"))}
	require.NoError(t, ix.Replace(next))

	snap, err := ix.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, next, snap)

	require.NoError(t, ix.Clear())
	empty, err := ix.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestStageRejectsBadPaths(t *testing.T) {
	ix := newTestIndex(t)
	h := cas.SumB3([]byte("x"))

	assert.Error(t, ix.Stage("../escape", h))
	assert.Error(t, ix.Stage("/abs", h))
	assert.Error(t, ix.Replace(map[string]cas.Hash{"ok": h, "a/./b": h}))

	empty, err := ix.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty, "a rejected Replace leaves the index untouched")
}
