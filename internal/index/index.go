// Package index implements the staging area between the working tree and the
// next commit.
package index

import (
	"fmt"
	"sort"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/store"
)

// Index maps paths to the blob fingerprints staged for the next commit.
type Index struct {
	db *store.DB
}

// New returns an Index backed by the stage bucket of db.
func New(db *store.DB) *Index {
	return &Index{db: db}
}

// Stage records hash as the pending content of path, replacing any earlier entry.
func (ix *Index) Stage(path string, hash cas.Hash) error {
	if err := commit.ValidatePath(path); err != nil {
		return err
	}
	if err := ix.db.Put(store.BucketStage, path, hash.String()); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	return nil
}

// Unstage drops the pending entry for path, if any.
func (ix *Index) Unstage(path string) error {
	if err := ix.db.Delete(store.BucketStage, path); err != nil {
		return fmt.Errorf("unstage %s: %w", path, err)
	}
	return nil
}

// Lookup returns the staged fingerprint for path.
func (ix *Index) Lookup(path string) (cas.Hash, bool, error) {
	v, ok, err := ix.db.Get(store.BucketStage, path)
	if err != nil || !ok {
		return cas.Hash{}, false, err
	}
	h, err := cas.ParseHash(v)
	if err != nil {
		return cas.Hash{}, false, fmt.Errorf("staged entry %s: %w", path, err)
	}
	return h, true, nil
}

// Snapshot returns a copy of every staged entry.
func (ix *Index) Snapshot() (map[string]cas.Hash, error) {
	raw, err := ix.db.All(store.BucketStage)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	entries := make(map[string]cas.Hash, len(raw))
	for path, v := range raw {
		h, err := cas.ParseHash(v)
		if err != nil {
			return nil, fmt.Errorf("staged entry %s: %w", path, err)
		}
		entries[path] = h
	}
	return entries, nil
}

// Paths returns the staged paths in sorted order.
func (ix *Index) Paths() ([]string, error) {
	entries, err := ix.Snapshot()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// IsEmpty reports whether nothing is staged.
func (ix *Index) IsEmpty() (bool, error) {
	n, err := ix.db.Count(store.BucketStage)
	if err != nil {
		return false, fmt.Errorf("count index: %w", err)
	}
	return n == 0, nil
}

// Clear removes every staged entry.
func (ix *Index) Clear() error {
	return ix.Replace(nil)
}

// Replace atomically swaps the whole index for entries.
func (ix *Index) Replace(entries map[string]cas.Hash) error {
	raw := make(map[string]string, len(entries))
	for path, h := range entries {
		if err := commit.ValidatePath(path); err != nil {
			return err
		}
		raw[path] = h.String()
	}
	if err := ix.db.Replace(store.BucketStage, raw); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
