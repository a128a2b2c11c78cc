package repo

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/ignore"
	"github.com/javanhut/mygit/internal/merge"
)

// Change classifies a path in a status report.
type Change string

const (
	Added      Change = "new file"
	Modified   Change = "modified"
	Deleted    Change = "deleted"
	Untracked  Change = "untracked"
	Conflicted Change = "both modified"
)

// Entry is one line of a status report.
type Entry struct {
	Path   string
	Change Change
}

// Status is a read-only projection of HEAD, the index and the working tree.
type Status struct {
	Branch   string
	Tip      *cas.Hash
	Staged   []Entry      // index against the tip
	Unstaged []Entry      // working tree against the index and tip
	Merge    *merge.State // pending conflicted merge, if any
}

// Clean reports whether nothing is staged, changed or pending.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && s.Merge == nil
}

// Status reports staged changes, working-tree changes and any pending merge.
func (r *Repository) Status() (*Status, error) {
	branch, err := r.Refs.CurrentBranch()
	if err != nil {
		return nil, err
	}
	st := &Status{Branch: branch}

	tip, ok, err := r.Refs.GetTip(branch)
	if err != nil {
		return nil, err
	}
	if ok {
		st.Tip = &tip
	}

	tipFiles, err := r.tipFiles()
	if err != nil {
		return nil, err
	}
	staged, err := r.Index.Snapshot()
	if err != nil {
		return nil, err
	}
	pending, merging, err := r.merger.Pending()
	if err != nil {
		return nil, err
	}
	if merging {
		st.Merge = pending
	}

	conflicted := make(map[string]bool)
	if merging {
		for _, p := range pending.Conflicts {
			conflicted[p] = true
		}
	}

	// Expected content of the next commit
	expected := make(map[string]cas.Hash, len(tipFiles)+len(staged))
	if !merging {
		for p, h := range tipFiles {
			expected[p] = h
		}
	}
	for p, h := range staged {
		expected[p] = h

		old, inTip := tipFiles[p]
		switch {
		case conflicted[p]:
			st.Staged = append(st.Staged, Entry{Path: p, Change: Conflicted})
		case !inTip:
			st.Staged = append(st.Staged, Entry{Path: p, Change: Added})
		case old != h:
			st.Staged = append(st.Staged, Entry{Path: p, Change: Modified})
		}
	}
	if merging {
		for p := range tipFiles {
			if _, ok := staged[p]; !ok {
				st.Staged = append(st.Staged, Entry{Path: p, Change: Deleted})
			}
		}
	}

	unstaged, err := r.scanWorktree(expected)
	if err != nil {
		return nil, err
	}
	st.Unstaged = unstaged

	sortEntries(st.Staged)
	sortEntries(st.Unstaged)
	return st, nil
}

// scanWorktree compares working-tree files with the expected snapshot.
func (r *Repository) scanWorktree(expected map[string]cas.Hash) ([]Entry, error) {
	matcher, err := ignore.Load(r.WorkDir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	seen := make(map[string]bool, len(expected))

	err = filepath.WalkDir(r.WorkDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.WorkDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		_, tracked := expected[rel]
		if !tracked && matcher.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if !tracked {
			entries = append(entries, Entry{Path: rel, Change: Untracked})
			return nil
		}
		seen[rel] = true

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if cas.SumB3(data) != expected[rel] {
			entries = append(entries, Entry{Path: rel, Change: Modified})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for p := range expected {
		if !seen[p] {
			entries = append(entries, Entry{Path: p, Change: Deleted})
		}
	}
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}
