package merge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/index"
	"github.com/javanhut/mygit/internal/objects"
	"github.com/javanhut/mygit/internal/refs"
	"github.com/javanhut/mygit/internal/store"
)

type memWorktree map[string][]byte

func (w memWorktree) WriteFile(path string, data []byte) error {
	w[path] = append([]byte(nil), data...)
	return nil
}

type fixture struct {
	t          *testing.T
	blobs      *objects.Store
	commitsCAS *cas.MemoryCAS
	graph      *commit.Graph
	refs       *refs.Manager
	index      *index.Index
	db         *store.DB
	worktree   memWorktree
	engine     *Engine
	tick       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "mygit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	refMgr, err := refs.NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, refMgr.Init("main"))

	f := &fixture{
		t:          t,
		blobs:      objects.NewStore(cas.NewMemoryCAS()),
		commitsCAS: cas.NewMemoryCAS(),
		refs:       refMgr,
		index:      index.New(db),
		db:         db,
		worktree:   memWorktree{},
	}
	f.graph = commit.NewGraph(f.commitsCAS)
	f.graph.Now = func() time.Time {
		f.tick++
		return time.Date(2024, 1, 1, 0, 0, f.tick, 0, time.UTC)
	}
	f.engine = NewEngine(f.blobs, f.graph, f.refs, f.index, f.db)
	f.engine.Worktree = f.worktree
	return f
}

// commit records files on branch, on top of its current tip, and advances the tip.
func (f *fixture) commit(branch string, files map[string]string) cas.Hash {
	f.t.Helper()

	snapshot := make(map[string]cas.Hash, len(files))
	for path, content := range files {
		h, err := f.blobs.Put([]byte(content))
		require.NoError(f.t, err)
		snapshot[path] = h
	}

	var parent *cas.Hash
	if tip, ok, err := f.refs.GetTip(branch); err == nil && ok {
		parent = &tip
	}

	c, err := f.graph.Create(commit.CreateOptions{
		Parent:  parent,
		Message: "commit on " + branch,
		Files:   snapshot,
		Branch:  branch,
	})
	require.NoError(f.t, err)
	require.NoError(f.t, f.refs.SetTip(branch, c.Hash))
	return c.Hash
}

func (f *fixture) branchFromCurrent(name string) {
	f.t.Helper()
	tip, ok, err := f.refs.GetTip("main")
	require.NoError(f.t, err)
	if ok {
		require.NoError(f.t, f.refs.CreateBranch(name, &tip))
	} else {
		require.NoError(f.t, f.refs.CreateBranch(name, nil))
	}
}

func (f *fixture) tip(branch string) cas.Hash {
	f.t.Helper()
	h, ok, err := f.refs.GetTip(branch)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return h
}

func (f *fixture) content(h cas.Hash) string {
	f.t.Helper()
	data, err := f.blobs.MustGet(h)
	require.NoError(f.t, err)
	return string(data)
}

func TestMerge_FastForward(t *testing.T) {
	f := newFixture(t)
	f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")
	incoming := f.commit("feature", map[string]string{"f": "B"})

	before := f.commitsCAS.Len()
	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)

	assert.Equal(t, FastForward, res.Kind)
	assert.Equal(t, incoming, res.Commit)
	assert.Equal(t, incoming, f.tip("main"))
	assert.Equal(t, before, f.commitsCAS.Len(), "fast-forward creates no commit")
}

func TestMerge_UpToDate(t *testing.T) {
	f := newFixture(t)
	tip := f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")

	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)
	assert.Equal(t, UpToDate, res.Kind)
	assert.Equal(t, tip, f.tip("main"))
}

func TestMerge_ThreeWayClean(t *testing.T) {
	f := newFixture(t)
	f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")
	currentTip := f.commit("main", map[string]string{"f": "A"})
	incomingTip := f.commit("feature", map[string]string{"f": "B"})

	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)
	require.Equal(t, Merged, res.Kind)
	assert.Empty(t, res.Conflicts)

	merged, ok, err := f.graph.Get(f.tip("main"))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, res.Commit, merged.Hash)
	assert.True(t, merged.IsMerge)
	assert.Equal(t, currentTip, *merged.Parent)
	assert.Equal(t, incomingTip, *merged.MergeParent)
	assert.Equal(t, "Merge branch 'feature' into main", merged.Message)
	require.Len(t, merged.Files, 1)
	assert.Equal(t, "B", f.content(merged.Files["f"]))

	empty, err := f.index.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestMerge_ThreeWayDeletions(t *testing.T) {
	f := newFixture(t)
	f.commit("main", map[string]string{"keep": "k", "gone-both": "g", "we-del": "w", "they-del": "t", "we-del-they-mod": "x", "they-del-we-mod": "y"})
	f.branchFromCurrent("feature")
	f.commit("main", map[string]string{"keep": "k", "they-del": "t", "they-del-we-mod": "y2", "ours-new": "o"})
	f.commit("feature", map[string]string{"keep": "k", "we-del": "w", "we-del-they-mod": "x2", "theirs-new": "n"})

	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)
	require.Equal(t, Merged, res.Kind)

	got := make(map[string]string)
	for path, h := range res.Files {
		got[path] = f.content(h)
	}
	assert.Equal(t, map[string]string{
		"keep":            "k",
		"we-del-they-mod": "x2",
		"they-del-we-mod": "y2",
		"ours-new":        "o",
		"theirs-new":      "n",
	}, got)
}

func TestMerge_Conflict(t *testing.T) {
	f := newFixture(t)
	f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")
	currentTip := f.commit("main", map[string]string{"f": "B"})
	f.commit("feature", map[string]string{"f": "C"})

	before := f.commitsCAS.Len()
	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)

	assert.Equal(t, Conflicted, res.Kind)
	assert.Equal(t, []string{"f"}, res.Conflicts)
	assert.Equal(t, before, f.commitsCAS.Len(), "no merge commit on conflict")
	assert.Equal(t, currentTip, f.tip("main"))

	want := "<<<<<<< main\nB\n=======\nC\n>>>>>>> feature\n"

	staged, ok, err := f.index.Lookup("f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, f.content(staged))
	assert.Equal(t, want, string(f.worktree["f"]))

	state, pending, err := f.engine.Pending()
	require.NoError(t, err)
	require.True(t, pending)
	assert.Equal(t, "feature", state.Branch)
	assert.Equal(t, "main", state.Into)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, []string{"f"}, state.Conflicts)
	incoming, err := state.Incoming()
	require.NoError(t, err)
	assert.Equal(t, f.tip("feature"), incoming)

	_, err = f.engine.Merge("feature", Options{})
	assert.ErrorIs(t, err, ErrMergeInProgress)
}

func TestMerge_ConflictStagesWholeResult(t *testing.T) {
	f := newFixture(t)
	f.commit("main", map[string]string{"f": "A", "other": "same"})
	f.branchFromCurrent("feature")
	f.commit("main", map[string]string{"f": "B", "other": "same"})
	f.commit("feature", map[string]string{"f": "C", "other": "same", "added": "new"})

	res, err := f.engine.Merge("feature", Options{})
	require.NoError(t, err)
	require.Equal(t, Conflicted, res.Kind)

	snap, err := f.index.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap, 3)
	assert.Equal(t, "new", f.content(snap["added"]))
	assert.NotContains(t, f.worktree, "added", "only conflicted files are written")
}

func TestMerge_Strategies(t *testing.T) {
	cases := map[Strategy]string{
		StrategyOurs:   "B",
		StrategyTheirs: "C",
		StrategyUnion:  "B\nC",
	}
	for strategy, want := range cases {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			f.commit("main", map[string]string{"f": "A"})
			f.branchFromCurrent("feature")
			f.commit("main", map[string]string{"f": "B"})
			f.commit("feature", map[string]string{"f": "C"})

			res, err := f.engine.Merge("feature", Options{Strategy: strategy})
			require.NoError(t, err)
			assert.Equal(t, Merged, res.Kind)
			assert.Empty(t, res.Conflicts)
			assert.Equal(t, []string{"f"}, res.Resolved)
			assert.Equal(t, want, f.content(res.Files["f"]))

			_, pending, err := f.engine.Pending()
			require.NoError(t, err)
			assert.False(t, pending)
		})
	}
}

func TestMerge_UnrelatedHistories(t *testing.T) {
	f := newFixture(t)
	mainTip := f.commit("main", map[string]string{"f": "A"})
	require.NoError(t, f.refs.CreateBranch("other", nil))
	otherTip := f.commit("other", map[string]string{"g": "B"})

	_, err := f.engine.Merge("other", Options{})
	assert.ErrorIs(t, err, ErrUnrelatedHistories)

	assert.Equal(t, mainTip, f.tip("main"))
	assert.Equal(t, otherTip, f.tip("other"))
}

func TestMerge_ValidationFailures(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.refs.CreateBranch("empty", nil))
	_, err := f.engine.Merge("empty", Options{})
	assert.ErrorIs(t, err, ErrNoCommits, "current branch unborn")

	f.commit("main", map[string]string{"f": "A"})

	_, err = f.engine.Merge("empty", Options{})
	assert.ErrorIs(t, err, ErrNoCommits, "incoming branch unborn")

	_, err = f.engine.Merge("missing", Options{})
	assert.ErrorIs(t, err, refs.ErrBranchNotFound)

	_, err = f.engine.Merge("main", Options{})
	assert.ErrorIs(t, err, ErrSelfMerge)

	f.branchFromCurrent("feature")
	require.NoError(t, f.index.Stage("dirty", cas.SumB3([]byte("x"))))
	_, err = f.engine.Merge("feature", Options{})
	assert.ErrorIs(t, err, ErrDirtyIndex)
}

func TestAbort(t *testing.T) {
	f := newFixture(t)

	// Nothing pending
	require.NoError(t, f.engine.Abort())
	empty, err := f.index.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")
	f.commit("main", map[string]string{"f": "B"})
	f.commit("feature", map[string]string{"f": "C"})
	_, err = f.engine.Merge("feature", Options{})
	require.NoError(t, err)

	require.NoError(t, f.engine.Abort())
	require.NoError(t, f.engine.Abort())

	empty, err = f.index.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	_, pending, err := f.engine.Pending()
	require.NoError(t, err)
	assert.False(t, pending)

	assert.Contains(t, f.worktree, "f", "abort leaves working tree files alone")
}

func TestFindCommonAncestor(t *testing.T) {
	f := newFixture(t)
	root := f.commit("main", map[string]string{"f": "A"})
	f.branchFromCurrent("feature")
	mid := f.commit("main", map[string]string{"f": "B"})
	f.commit("main", map[string]string{"f": "C"})
	f.commit("feature", map[string]string{"f": "D"})

	base, ok, err := FindCommonAncestor(f.graph, f.tip("main"), f.tip("feature"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, base)

	base, ok, err = FindCommonAncestor(f.graph, f.tip("main"), mid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mid, base)
}
