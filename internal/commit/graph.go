package commit

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/javanhut/mygit/internal/cas"
)

// DefaultCacheSize is the number of decoded commits kept in memory.
const DefaultCacheSize = 1024

// CreateOptions describes a commit to be created.
type CreateOptions struct {
	Parent      *cas.Hash
	MergeParent *cas.Hash
	Message     string
	Files       map[string]cas.Hash
	Branch      string
	Author      string
}

// Graph stores commit records keyed by their fingerprint.
// Decoded commits are shared through an LRU cache and must be treated as read-only.
type Graph struct {
	cas   cas.CAS
	cache *lru.Cache[cas.Hash, *Commit]

	// Now supplies commit timestamps. Tests replace it for stable fingerprints.
	Now func() time.Time
}

// NewGraph creates a Graph over the commit address space.
func NewGraph(backend cas.CAS) *Graph {
	cache, _ := lru.New[cas.Hash, *Commit](DefaultCacheSize)
	return &Graph{
		cas:   backend,
		cache: cache,
		Now:   time.Now,
	}
}

// Backend returns the CAS holding commit records.
func (g *Graph) Backend() cas.CAS {
	return g.cas
}

// Create builds, validates and persists a commit. Parents must already exist.
func (g *Graph) Create(opts CreateOptions) (*Commit, error) {
	if len(opts.Files) == 0 && opts.Parent == nil {
		return nil, ErrEmptyCommit
	}

	for _, parent := range []*cas.Hash{opts.Parent, opts.MergeParent} {
		if parent == nil {
			continue
		}
		has, err := g.cas.Has(*parent)
		if err != nil {
			return nil, fmt.Errorf("check parent %s: %w", parent, err)
		}
		if !has {
			return nil, fmt.Errorf("%w: %s", ErrDanglingParent, parent)
		}
	}

	c := &Commit{
		Parent:      cloneHash(opts.Parent),
		MergeParent: cloneHash(opts.MergeParent),
		Message:     opts.Message,
		Timestamp:   g.Now().UTC().Truncate(time.Second),
		Files:       maps.Clone(opts.Files),
		Branch:      opts.Branch,
		Author:      opts.Author,
		IsMerge:     opts.MergeParent != nil,
	}
	if c.Files == nil {
		c.Files = make(map[string]cas.Hash)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	data := encodeCommit(c)
	c.Hash = cas.SumB3(data)

	if err := g.cas.Put(c.Hash, data); err != nil {
		return nil, fmt.Errorf("failed to store commit: %w", err)
	}
	g.cache.Add(c.Hash, c)

	return c, nil
}

// Get returns the commit stored under hash. The boolean is false when no
// such commit exists.
func (g *Graph) Get(hash cas.Hash) (*Commit, bool, error) {
	if c, ok := g.cache.Get(hash); ok {
		return c, true, nil
	}

	data, err := g.cas.Get(hash)
	if err != nil {
		if errors.Is(err, cas.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get commit object: %w", err)
	}

	c, err := decodeCommit(hash, data)
	if err != nil {
		return nil, false, fmt.Errorf("decode commit %s: %w", hash, err)
	}
	g.cache.Add(hash, c)
	return c, true, nil
}

// Has reports whether a commit exists.
func (g *Graph) Has(hash cas.Hash) (bool, error) {
	if g.cache.Contains(hash) {
		return true, nil
	}
	return g.cas.Has(hash)
}

// Raw returns the stored encoding of a commit, for copying between repositories.
func (g *Graph) Raw(hash cas.Hash) ([]byte, error) {
	return g.cas.Get(hash)
}

// Ancestors walks first parents from start towards the root, yielding start
// first. Merge parents are not followed. The walk stops early if the consumer
// breaks, and yields an error if start is missing or a parent edge dangles.
func (g *Graph) Ancestors(start cas.Hash) iter.Seq2[*Commit, error] {
	return func(yield func(*Commit, error) bool) {
		c, ok, err := g.Get(start)
		if err != nil {
			yield(nil, err)
			return
		}
		if !ok {
			yield(nil, fmt.Errorf("commit %s: %w", start, cas.ErrNotFound))
			return
		}

		for {
			if !yield(c, nil) {
				return
			}
			if c.Parent == nil {
				return
			}

			parent := *c.Parent
			c, ok, err = g.Get(parent)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				yield(nil, fmt.Errorf("%w: %s", ErrDanglingParent, parent))
				return
			}
		}
	}
}

// AncestorSet collects the hashes of every first-parent ancestor of start,
// start included.
func (g *Graph) AncestorSet(start cas.Hash) (map[cas.Hash]struct{}, error) {
	set := make(map[cas.Hash]struct{})
	for c, err := range g.Ancestors(start) {
		if err != nil {
			return nil, err
		}
		set[c.Hash] = struct{}{}
	}
	return set, nil
}

func cloneHash(h *cas.Hash) *cas.Hash {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}
