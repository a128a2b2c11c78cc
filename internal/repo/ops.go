package repo

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/diffview"
	"github.com/javanhut/mygit/internal/ignore"
	"github.com/javanhut/mygit/internal/merge"
	"github.com/javanhut/mygit/internal/refs"
)

// Add stores the named files and stages them. Directories are walked
// recursively, skipping paths matched by .mygitignore. It returns the staged
// paths in sorted order.
func (r *Repository) Add(paths ...string) ([]string, error) {
	matcher, err := ignore.Load(r.WorkDir)
	if err != nil {
		return nil, err
	}

	staged := make(map[string]struct{})
	for _, p := range paths {
		rel, full, err := r.relPath(p)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrPathNotFound, p)
			}
			return nil, err
		}

		if !info.IsDir() {
			if err := r.stageFile(rel, full); err != nil {
				return nil, err
			}
			staged[rel] = struct{}{}
			continue
		}

		err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			fileRel, err := filepath.Rel(r.WorkDir, path)
			if err != nil {
				return err
			}
			fileRel = filepath.ToSlash(fileRel)
			if fileRel == "." {
				return nil
			}

			if matcher.Match(fileRel, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			if err := r.stageFile(fileRel, path); err != nil {
				return err
			}
			staged[fileRel] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(staged))
	for p := range staged {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repository) stageFile(rel, full string) error {
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	h, err := r.Blobs.Put(data)
	if err != nil {
		return err
	}
	if err := r.Index.Stage(rel, h); err != nil {
		return err
	}
	r.Logger.Debug("staged", "path", rel, "blob", h.Short())
	return nil
}

// Unstage drops pending entries for the given paths.
func (r *Repository) Unstage(paths ...string) error {
	for _, p := range paths {
		rel, _, err := r.relPath(p)
		if err != nil {
			return err
		}
		if err := r.Index.Unstage(rel); err != nil {
			return err
		}
	}
	return nil
}

// Commit records the staged changes on the current branch.
//
// The new snapshot is the parent's snapshot with the staged entries laid over
// it. When a conflicted merge is pending the staged map already holds the
// complete merge result; it becomes the snapshot as is and the commit records
// the incoming tip as its merge parent.
func (r *Repository) Commit(message string) (*commit.Commit, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	staged, err := r.Index.Snapshot()
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		return nil, commit.ErrEmptyCommit
	}

	branch, err := r.Refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	tip, hasTip, err := r.Refs.GetTip(branch)
	if err != nil {
		return nil, err
	}

	pending, merging, err := r.merger.Pending()
	if err != nil {
		return nil, err
	}

	opts := commit.CreateOptions{
		Message: message,
		Branch:  branch,
		Author:  r.Config.Author(),
	}
	if hasTip {
		opts.Parent = &tip
	}

	switch {
	case merging:
		incoming, err := pending.Incoming()
		if err != nil {
			return nil, fmt.Errorf("pending merge: %w", err)
		}
		opts.MergeParent = &incoming
		opts.Files = staged

	case hasTip:
		parent, err := r.mustCommit(tip)
		if err != nil {
			return nil, err
		}
		opts.Files = maps.Clone(parent.Files)
		maps.Copy(opts.Files, staged)

	default:
		opts.Files = staged
	}

	c, err := r.Commits.Create(opts)
	if err != nil {
		return nil, err
	}
	if err := r.Refs.SetTip(branch, c.Hash); err != nil {
		return nil, fmt.Errorf("update %s: %w", branch, err)
	}
	if err := r.Index.Clear(); err != nil {
		return nil, err
	}
	if merging {
		if err := r.merger.Conclude(); err != nil {
			return nil, err
		}
	}

	r.Logger.Debug("committed", "branch", branch, "commit", c.Hash.Short(), "files", len(c.Files), "merge", c.IsMerge)
	return c, nil
}

// Log returns up to limit commits from branch's first-parent history, newest
// first. An empty branch means the current one; limit <= 0 means no limit.
func (r *Repository) Log(branch string, limit int) ([]*commit.Commit, error) {
	if branch == "" {
		var err error
		if branch, err = r.Refs.CurrentBranch(); err != nil {
			return nil, err
		}
	}

	tip, ok, err := r.Refs.GetTip(branch)
	if err != nil || !ok {
		return nil, err
	}

	var out []*commit.Commit
	for c, err := range r.Commits.Ancestors(tip) {
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// BranchInfo describes one branch for listing.
type BranchInfo struct {
	Name    string
	Tip     *cas.Hash // nil while unborn
	Current bool
}

// Branches lists every branch in name order.
func (r *Repository) Branches() ([]BranchInfo, error) {
	names, err := r.Refs.ListBranches()
	if err != nil {
		return nil, err
	}
	current, _ := r.Refs.CurrentBranch()

	out := make([]BranchInfo, 0, len(names))
	for _, name := range names {
		info := BranchInfo{Name: name, Current: name == current}
		tip, ok, err := r.Refs.GetTip(name)
		if err != nil {
			return nil, err
		}
		if ok {
			info.Tip = &tip
		}
		out = append(out, info)
	}
	return out, nil
}

// CreateBranch creates name at the current branch's tip.
func (r *Repository) CreateBranch(name string) error {
	current, err := r.Refs.CurrentBranch()
	if err != nil {
		return err
	}
	tip, ok, err := r.Refs.GetTip(current)
	if err != nil {
		return err
	}
	if !ok {
		return r.Refs.CreateBranch(name, nil)
	}
	return r.Refs.CreateBranch(name, &tip)
}

// Checkout switches HEAD to branch. The working tree and index are not touched.
func (r *Repository) Checkout(branch string) error {
	if _, merging, err := r.merger.Pending(); err != nil {
		return err
	} else if merging {
		return merge.ErrMergeInProgress
	}
	if !r.Refs.Exists(branch) {
		return fmt.Errorf("%w: %s", refs.ErrBranchNotFound, branch)
	}
	return r.Refs.SetCurrent(branch)
}

// Restore overwrites a working-tree file with its content at the current tip.
func (r *Repository) Restore(path string) error {
	rel, _, err := r.relPath(path)
	if err != nil {
		return err
	}

	files, err := r.tipFiles()
	if err != nil {
		return err
	}
	h, ok := files[rel]
	if !ok {
		return fmt.Errorf("%w: %s is not in the current commit", ErrPathNotFound, rel)
	}

	data, err := r.Blobs.MustGet(h)
	if err != nil {
		return err
	}
	if err := (worktree{root: r.WorkDir}).WriteFile(rel, data); err != nil {
		return fmt.Errorf("restore %s: %w", rel, err)
	}
	r.Logger.Debug("restored", "path", rel, "blob", h.Short())
	return nil
}

// Diff renders staged content against the current tip. With no paths every
// staged entry is compared.
func (r *Repository) Diff(paths ...string) (string, error) {
	staged, err := r.Index.Snapshot()
	if err != nil {
		return "", err
	}
	tipFiles, err := r.tipFiles()
	if err != nil {
		return "", err
	}

	var targets []string
	if len(paths) == 0 {
		for p := range staged {
			targets = append(targets, p)
		}
	} else {
		for _, p := range paths {
			rel, _, err := r.relPath(p)
			if err != nil {
				return "", err
			}
			targets = append(targets, rel)
		}
	}
	sort.Strings(targets)

	var b strings.Builder
	for _, path := range targets {
		newHash, isStaged := staged[path]
		if !isStaged {
			continue
		}
		newData, err := r.Blobs.MustGet(newHash)
		if err != nil {
			return "", err
		}

		var oldData []byte
		if oldHash, ok := tipFiles[path]; ok {
			if oldHash == newHash {
				continue
			}
			if oldData, err = r.Blobs.MustGet(oldHash); err != nil {
				return "", err
			}
		}

		patch, err := diffview.Unified(path, oldData, newData, diffview.Options{})
		if err != nil {
			return "", err
		}
		b.WriteString(patch)
	}
	return b.String(), nil
}

// Merge merges branch into the current branch. An empty strategy falls back
// to merge.strategy from the config.
func (r *Repository) Merge(branch, strategy string) (*merge.Result, error) {
	if strategy == "" {
		strategy = r.Config.Merge.Strategy
	}
	s, err := merge.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return r.merger.Merge(branch, merge.Options{Strategy: s})
}

// AbortMerge clears the index and any pending merge.
func (r *Repository) AbortMerge() error {
	return r.merger.Abort()
}

// PendingMerge returns the conflicted merge awaiting a commit, if any.
func (r *Repository) PendingMerge() (*merge.State, bool, error) {
	return r.merger.Pending()
}

// tipFiles returns the snapshot at the current branch's tip, empty when unborn.
func (r *Repository) tipFiles() (map[string]cas.Hash, error) {
	branch, err := r.Refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	tip, ok, err := r.Refs.GetTip(branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]cas.Hash{}, nil
	}
	c, err := r.mustCommit(tip)
	if err != nil {
		return nil, err
	}
	return c.Files, nil
}

func (r *Repository) mustCommit(h cas.Hash) (*commit.Commit, error) {
	c, ok, err := r.Commits.Get(h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", commit.ErrDanglingParent, h)
	}
	return c, nil
}

// relPath resolves p (absolute, or relative to the working tree) to a
// slash-separated path inside the working tree.
func (r *Repository) relPath(p string) (rel, full string, err error) {
	full = p
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.WorkDir, p)
	}
	full = filepath.Clean(full)

	rel, err = filepath.Rel(r.WorkDir, full)
	if err != nil {
		return "", "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", fmt.Errorf("%w: %s", ErrOutsideRepository, p)
	}
	if rel == ignore.RepoDir || strings.HasPrefix(rel, ignore.RepoDir+"/") {
		return "", "", fmt.Errorf("%w: %s is inside %s", ErrOutsideRepository, p, DirName)
	}
	return rel, full, nil
}
