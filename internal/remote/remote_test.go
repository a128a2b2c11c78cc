package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
)

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := OpenBare(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newSource(t *testing.T) *Store {
	t.Helper()
	s := openStore(t, t.TempDir())
	require.NoError(t, s.Refs.Init("main"))
	return s
}

func commitFiles(t *testing.T, s *Store, branch string, parent, mergeParent *cas.Hash, files map[string]string) cas.Hash {
	t.Helper()
	snap := make(map[string]cas.Hash)
	for p, content := range files {
		h, err := s.Blobs.Put([]byte(content))
		require.NoError(t, err)
		snap[p] = h
	}
	c, err := s.Commits.Create(commit.CreateOptions{
		Parent:      parent,
		MergeParent: mergeParent,
		Message:     "msg " + branch,
		Files:       snap,
		Branch:      branch,
	})
	require.NoError(t, err)
	require.NoError(t, s.Refs.SetTip(branch, c.Hash))
	return c.Hash
}

func TestPushToEmptyDestination(t *testing.T) {
	src := newSource(t)
	c1 := commitFiles(t, src, "main", nil, nil, map[string]string{"a": "1", "b": "2"})
	c2 := commitFiles(t, src, "main", &c1, nil, map[string]string{"a": "1", "b": "3"})

	dstDir := filepath.Join(t.TempDir(), "origin")
	dst := openStore(t, dstDir)

	stats, err := Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Commits)
	assert.Equal(t, 3, stats.Blobs)
	assert.Equal(t, c2, stats.Tip)

	tip, ok, err := dst.Refs.GetTip("main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c2, tip)

	var walked int
	for c, err := range dst.Commits.Ancestors(tip) {
		require.NoError(t, err)
		walked++
		for _, h := range c.Files {
			has, err := dst.Blobs.Has(h)
			require.NoError(t, err)
			assert.True(t, has)
		}
	}
	assert.Equal(t, 2, walked)

	for _, sub := range []string{"objects", "commits", filepath.Join("refs", "heads"), "HEAD"} {
		_, err := os.Stat(filepath.Join(dstDir, sub))
		assert.NoError(t, err, sub)
	}
	branch, err := dst.Refs.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestPushIsIncremental(t *testing.T) {
	src := newSource(t)
	dst := openStore(t, t.TempDir())
	c1 := commitFiles(t, src, "main", nil, nil, map[string]string{"a": "1"})

	_, err := Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)

	stats, err := Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)
	assert.True(t, stats.UpToDate())

	commitFiles(t, src, "main", &c1, nil, map[string]string{"a": "1", "new": "n"})
	stats, err = Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Commits)
	assert.Equal(t, 1, stats.Blobs)
}

func TestPushCopiesMergeParents(t *testing.T) {
	src := newSource(t)
	dst := openStore(t, t.TempDir())

	root := commitFiles(t, src, "main", nil, nil, map[string]string{"f": "A"})
	_, err := Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)

	require.NoError(t, src.Refs.CreateBranch("feature", &root))
	side1 := commitFiles(t, src, "feature", &root, nil, map[string]string{"f": "A", "s": "1"})
	side2 := commitFiles(t, src, "feature", &side1, nil, map[string]string{"f": "A", "s": "2"})
	mainNext := commitFiles(t, src, "main", &root, nil, map[string]string{"f": "B"})
	merge := commitFiles(t, src, "main", &mainNext, &side2, map[string]string{"f": "B", "s": "2"})

	stats, err := Push(context.Background(), src, dst, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Commits)

	for _, h := range []cas.Hash{side1, side2, mainNext, merge} {
		has, err := dst.Commits.Has(h)
		require.NoError(t, err)
		assert.True(t, has, h.Short())
	}
}

func TestPushUnbornBranch(t *testing.T) {
	src := newSource(t)
	dst := openStore(t, t.TempDir())

	_, err := Push(context.Background(), src, dst, "main", nil)
	assert.ErrorIs(t, err, ErrNothingToPush)
}

func TestPushHonoursCancellation(t *testing.T) {
	src := newSource(t)
	dst := openStore(t, t.TempDir())
	commitFiles(t, src, "main", nil, nil, map[string]string{"a": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Push(ctx, src, dst, "main", nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok, err := dst.Refs.GetTip("main")
	if err == nil {
		assert.False(t, ok, "tip must not be written")
	}
}

func TestParentsFirst(t *testing.T) {
	g := commit.NewGraph(cas.NewMemoryCAS())
	mk := func(parent, mergeParent *cas.Hash, name string) *commit.Commit {
		c, err := g.Create(commit.CreateOptions{
			Parent: parent, MergeParent: mergeParent, Message: name,
			Files: map[string]cas.Hash{"f": cas.SumB3([]byte(name))}, Branch: "main",
		})
		require.NoError(t, err)
		return c
	}

	root := mk(nil, nil, "root")
	a := mk(&root.Hash, nil, "a")
	b := mk(&root.Hash, nil, "b")
	m := mk(&a.Hash, &b.Hash, "m")

	missing := map[cas.Hash]*commit.Commit{root.Hash: root, a.Hash: a, b.Hash: b, m.Hash: m}
	// Discovery order of a tip-first walk
	out := parentsFirst(missing, []cas.Hash{m.Hash, a.Hash, root.Hash, b.Hash})
	require.Len(t, out, 4)

	pos := make(map[cas.Hash]int)
	for i, h := range out {
		pos[h] = i
	}
	for h, c := range missing {
		if c.Parent != nil {
			assert.Less(t, pos[*c.Parent], pos[h])
		}
		if c.MergeParent != nil {
			assert.Less(t, pos[*c.MergeParent], pos[h])
		}
	}
}
