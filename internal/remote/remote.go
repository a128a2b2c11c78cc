// Package remote copies history between repositories on the local filesystem.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/objects"
	"github.com/javanhut/mygit/internal/refs"
)

var (
	ErrRemoteNotFound = errors.New("remote not found")
	ErrNothingToPush  = errors.New("branch has no commits to push")
)

// Store is one side of a transfer: the two address spaces and the branch refs.
type Store struct {
	Blobs   *objects.Store
	Commits *commit.Graph
	Refs    *refs.Manager

	closers []func() error
}

// Close releases resources held by a Store returned from OpenBare.
func (s *Store) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBare opens, creating if necessary, a bare repository at dir with the
// layout objects/, commits/ and refs/heads/.
func OpenBare(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create remote dir: %w", err)
	}

	blobCAS, err := cas.NewFileCAS(filepath.Join(dir, "objects"))
	if err != nil {
		return nil, err
	}
	commitCAS, err := cas.NewFileCAS(filepath.Join(dir, "commits"))
	if err != nil {
		blobCAS.Close()
		return nil, err
	}
	refMgr, err := refs.NewManager(dir)
	if err != nil {
		blobCAS.Close()
		commitCAS.Close()
		return nil, err
	}

	return &Store{
		Blobs:   objects.NewStore(blobCAS),
		Commits: commit.NewGraph(commitCAS),
		Refs:    refMgr,
		closers: []func() error{blobCAS.Close, commitCAS.Close},
	}, nil
}

// Stats summarises a push.
type Stats struct {
	Branch  string
	Tip     cas.Hash
	Commits int
	Blobs   int
}

// UpToDate reports whether the push copied nothing.
func (s Stats) UpToDate() bool {
	return s.Commits == 0 && s.Blobs == 0
}

// Push copies every commit reachable from branch's tip in src that dst lacks,
// together with the blobs those commits reference, then points dst's branch
// at the tip. Blobs are written before the commit that names them and parents
// before children, so an interrupted push never leaves a reachable commit with
// missing history.
func Push(ctx context.Context, src, dst *Store, branch string, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	stats := Stats{Branch: branch}

	tip, ok, err := src.Refs.GetTip(branch)
	if err != nil {
		return stats, err
	}
	if !ok {
		return stats, fmt.Errorf("%w: %s", ErrNothingToPush, branch)
	}
	stats.Tip = tip

	missing, order, err := collectMissing(ctx, src, dst, tip)
	if err != nil {
		return stats, err
	}

	for _, h := range parentsFirst(missing, order) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		c := missing[h]
		for _, path := range c.Paths() {
			copied, err := copyBlob(src, dst, c.Files[path])
			if err != nil {
				return stats, fmt.Errorf("copy %s of %s: %w", path, h.Short(), err)
			}
			if copied {
				stats.Blobs++
			}
		}

		raw, err := src.Commits.Raw(h)
		if err != nil {
			return stats, fmt.Errorf("read commit %s: %w", h.Short(), err)
		}
		if err := dst.Commits.Backend().Put(h, raw); err != nil {
			return stats, fmt.Errorf("write commit %s: %w", h.Short(), err)
		}
		stats.Commits++
		logger.Debug("pushed commit", "commit", h.Short(), "files", len(c.Files))
	}

	if !dst.Refs.Exists(branch) {
		if err := dst.Refs.CreateBranch(branch, &tip); err != nil {
			return stats, err
		}
	} else if err := dst.Refs.SetTip(branch, tip); err != nil {
		return stats, err
	}

	if _, err := dst.Refs.Head(); err != nil {
		if err := dst.Refs.Init(branch); err != nil {
			return stats, err
		}
	}

	logger.Info("push complete", "branch", branch, "tip", tip.Short(), "commits", stats.Commits, "blobs", stats.Blobs)
	return stats, nil
}

// collectMissing walks first parents from tip, and from every merge parent met
// on the way, stopping each walk at the first commit dst already holds.
func collectMissing(ctx context.Context, src, dst *Store, tip cas.Hash) (map[cas.Hash]*commit.Commit, []cas.Hash, error) {
	missing := make(map[cas.Hash]*commit.Commit)
	var order []cas.Hash
	starts := []cas.Hash{tip}

	for len(starts) > 0 {
		start := starts[0]
		starts = starts[1:]

		for c, err := range src.Commits.Ancestors(start) {
			if err != nil {
				return nil, nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if _, seen := missing[c.Hash]; seen {
				break
			}
			has, err := dst.Commits.Has(c.Hash)
			if err != nil {
				return nil, nil, err
			}
			if has {
				break
			}

			missing[c.Hash] = c
			order = append(order, c.Hash)
			if c.MergeParent != nil {
				starts = append(starts, *c.MergeParent)
			}
		}
	}
	return missing, order, nil
}

// parentsFirst orders the missing commits so each one follows its parents.
func parentsFirst(missing map[cas.Hash]*commit.Commit, order []cas.Hash) []cas.Hash {
	type frame struct {
		hash     cas.Hash
		expanded bool
	}

	done := make(map[cas.Hash]bool, len(missing))
	out := make([]cas.Hash, 0, len(missing))

	for _, root := range order {
		stack := []frame{{hash: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if done[top.hash] {
				continue
			}
			if top.expanded {
				done[top.hash] = true
				out = append(out, top.hash)
				continue
			}

			stack = append(stack, frame{hash: top.hash, expanded: true})
			c := missing[top.hash]
			for _, p := range []*cas.Hash{c.MergeParent, c.Parent} {
				if p == nil || done[*p] {
					continue
				}
				if _, ok := missing[*p]; ok {
					stack = append(stack, frame{hash: *p})
				}
			}
		}
	}
	return out
}

func copyBlob(src, dst *Store, h cas.Hash) (bool, error) {
	has, err := dst.Blobs.Has(h)
	if err != nil || has {
		return false, err
	}
	data, err := src.Blobs.MustGet(h)
	if err != nil {
		return false, err
	}
	if err := dst.Blobs.Backend().Put(h, data); err != nil {
		return false, err
	}
	return true, nil
}
