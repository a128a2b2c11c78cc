// Package merge reconciles two branch histories.
//
// A merge either does nothing (tips equal), fast-forwards the current branch,
// or performs a whole-file three-way merge against the common ancestor. Clean
// three-way merges produce a merge commit. Conflicted ones stage the result,
// write conflict markers into the working tree and wait for a commit or an
// abort.
package merge

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/index"
	"github.com/javanhut/mygit/internal/objects"
	"github.com/javanhut/mygit/internal/refs"
	"github.com/javanhut/mygit/internal/store"
)

var (
	ErrSelfMerge          = errors.New("cannot merge a branch into itself")
	ErrDirtyIndex         = errors.New("staged changes present; commit them before merging")
	ErrNoCommits          = errors.New("branch has no commits")
	ErrUnrelatedHistories = errors.New("no common ancestor; refusing to merge unrelated histories")
	ErrMergeInProgress    = errors.New("a merge is in progress; commit the resolution or abort it")
)

// Kind is the outcome of a merge attempt.
type Kind int

const (
	UpToDate Kind = iota
	FastForward
	Merged
	Conflicted
)

func (k Kind) String() string {
	switch k {
	case UpToDate:
		return "up-to-date"
	case FastForward:
		return "fast-forward"
	case Merged:
		return "merged"
	case Conflicted:
		return "conflicted"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result reports what a merge did.
type Result struct {
	Kind      Kind
	Current   string              // Branch merged into
	Incoming  string              // Branch merged from
	Base      cas.Hash            // Common ancestor, three-way merges only
	Commit    cas.Hash            // Tip of the current branch after the merge
	Files     map[string]cas.Hash // Three-way result snapshot
	Conflicts []string            // Conflicted paths, sorted
	Resolved  []string            // Conflicts settled by a strategy, sorted
	State     *State              // Pending merge state when Conflicted
}

// Worktree receives the marker-laden content of conflicted files.
type Worktree interface {
	WriteFile(path string, data []byte) error
}

// Options tune a single merge.
type Options struct {
	Strategy Strategy
}

// Engine performs merges against a repository's stores.
type Engine struct {
	blobs   *objects.Store
	commits *commit.Graph
	refs    *refs.Manager
	index   *index.Index
	db      *store.DB

	Worktree Worktree     // optional; conflicted files are only staged when nil
	Logger   *slog.Logger // defaults to slog.Default()
	Author   string       // recorded on merge commits
}

// NewEngine creates an Engine over the given stores.
func NewEngine(blobs *objects.Store, commits *commit.Graph, refMgr *refs.Manager, ix *index.Index, db *store.DB) *Engine {
	return &Engine{
		blobs:   blobs,
		commits: commits,
		refs:    refMgr,
		index:   ix,
		db:      db,
		Logger:  slog.Default(),
	}
}

// Merge merges branch into the current branch.
// Validation failures are returned before any store is touched.
func (e *Engine) Merge(branch string, opts Options) (*Result, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	if _, pending, err := loadState(e.db); err != nil {
		return nil, err
	} else if pending {
		return nil, ErrMergeInProgress
	}

	current, err := e.refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if !e.refs.Exists(branch) {
		return nil, fmt.Errorf("%w: %s", refs.ErrBranchNotFound, branch)
	}
	if branch == current {
		return nil, fmt.Errorf("%w: %s", ErrSelfMerge, branch)
	}

	empty, err := e.index.IsEmpty()
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, ErrDirtyIndex
	}

	currentTip, ok, err := e.refs.GetTip(current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCommits, current)
	}
	incomingTip, ok, err := e.refs.GetTip(branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCommits, branch)
	}

	log := e.logger().With("into", current, "from", branch)

	if currentTip == incomingTip {
		log.Debug("tips identical, nothing to merge", "tip", currentTip.Short())
		return &Result{Kind: UpToDate, Current: current, Incoming: branch, Commit: currentTip}, nil
	}

	base, found, err := FindCommonAncestor(e.commits, currentTip, incomingTip)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s and %s", ErrUnrelatedHistories, current, branch)
	}

	if base == currentTip {
		if err := e.refs.SetTip(current, incomingTip); err != nil {
			return nil, fmt.Errorf("fast-forward %s: %w", current, err)
		}
		log.Info("fast-forward", "from_tip", currentTip.Short(), "to_tip", incomingTip.Short())
		return &Result{Kind: FastForward, Current: current, Incoming: branch, Base: base, Commit: incomingTip}, nil
	}

	return e.threeWay(log, current, branch, base, currentTip, incomingTip, strategy)
}

func (e *Engine) threeWay(log *slog.Logger, current, branch string, baseHash, currentTip, incomingTip cas.Hash, strategy Strategy) (*Result, error) {
	baseCommit, err := e.mustCommit(baseHash)
	if err != nil {
		return nil, err
	}
	currentCommit, err := e.mustCommit(currentTip)
	if err != nil {
		return nil, err
	}
	incomingCommit, err := e.mustCommit(incomingTip)
	if err != nil {
		return nil, err
	}

	paths := unionPaths(baseCommit.Files, currentCommit.Files, incomingCommit.Files)
	files := make(map[string]cas.Hash, len(paths))
	markers := make(map[string][]byte)
	var conflicts, resolved []string

	for _, path := range paths {
		out := reconcile(lookup(baseCommit.Files, path), lookup(currentCommit.Files, path), lookup(incomingCommit.Files, path))

		if !out.conflict {
			if out.hash != nil {
				files[path] = *out.hash
			} else {
				log.Debug("dropped", "path", path)
			}
			continue
		}

		ours, err := e.blobs.MustGet(currentCommit.Files[path])
		if err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", path, current, err)
		}
		theirs, err := e.blobs.MustGet(incomingCommit.Files[path])
		if err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", path, branch, err)
		}

		content, settled := strategy.resolve(current, ours, branch, theirs)
		hash, err := e.blobs.Put(content)
		if err != nil {
			return nil, fmt.Errorf("store merged %s: %w", path, err)
		}
		files[path] = hash

		if settled {
			resolved = append(resolved, path)
			log.Debug("conflict resolved by strategy", "path", path, "strategy", strategy)
		} else {
			conflicts = append(conflicts, path)
			markers[path] = content
			log.Info("conflict", "path", path)
		}
	}

	result := &Result{
		Current:   current,
		Incoming:  branch,
		Base:      baseHash,
		Files:     files,
		Conflicts: conflicts,
		Resolved:  resolved,
	}

	if len(conflicts) > 0 {
		if err := e.index.Replace(files); err != nil {
			return nil, err
		}
		if e.Worktree != nil {
			for _, path := range conflicts {
				if err := e.Worktree.WriteFile(path, markers[path]); err != nil {
					return nil, fmt.Errorf("write conflicted %s: %w", path, err)
				}
			}
		}

		state := newState(current, branch, incomingTip, baseHash, strategy, conflicts, e.commits.Now())
		if err := saveState(e.db, state); err != nil {
			return nil, err
		}

		result.Kind = Conflicted
		result.Commit = currentTip
		result.State = state
		log.Info("merge stopped on conflicts", "conflicts", len(conflicts), "merge_id", state.ID)
		return result, nil
	}

	c, err := e.commits.Create(commit.CreateOptions{
		Parent:      &currentTip,
		MergeParent: &incomingTip,
		Message:     fmt.Sprintf("Merge branch '%s' into %s", branch, current),
		Files:       files,
		Branch:      current,
		Author:      e.Author,
	})
	if err != nil {
		return nil, fmt.Errorf("create merge commit: %w", err)
	}
	if err := e.refs.SetTip(current, c.Hash); err != nil {
		return nil, fmt.Errorf("update %s: %w", current, err)
	}

	result.Kind = Merged
	result.Commit = c.Hash
	log.Info("merge commit created", "commit", c.Hash.Short(), "files", len(files))
	return result, nil
}

// Abort clears the staging index and any pending merge state. Files written
// into the working tree are left as they are. Aborting with nothing pending
// succeeds.
func (e *Engine) Abort() error {
	if err := e.index.Clear(); err != nil {
		return err
	}
	if err := clearState(e.db); err != nil {
		return fmt.Errorf("clear merge state: %w", err)
	}
	e.logger().Debug("merge aborted")
	return nil
}

// Pending returns the state of a conflicted merge awaiting resolution.
func (e *Engine) Pending() (*State, bool, error) {
	return loadState(e.db)
}

// Conclude forgets the pending merge after its resolution has been committed.
func (e *Engine) Conclude() error {
	return clearState(e.db)
}

func (e *Engine) mustCommit(hash cas.Hash) (*commit.Commit, error) {
	c, ok, err := e.commits.Get(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", commit.ErrDanglingParent, hash)
	}
	return c, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func lookup(files map[string]cas.Hash, path string) *cas.Hash {
	h, ok := files[path]
	if !ok {
		return nil
	}
	return &h
}

func unionPaths(snapshots ...map[string]cas.Hash) []string {
	seen := make(map[string]struct{})
	for _, files := range snapshots {
		for p := range files {
			seen[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
