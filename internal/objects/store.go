// Package objects implements the blob address space of a repository.
//
// Blobs are opaque file contents keyed by their BLAKE3 fingerprint. The store
// is append-only: Put is idempotent and there is no delete.
package objects

import (
	"errors"
	"fmt"

	"github.com/javanhut/mygit/internal/cas"
)

// Store maps content to fingerprints and back.
type Store struct {
	cas cas.CAS
}

// NewStore wraps a CAS backend as a blob store.
func NewStore(backend cas.CAS) *Store {
	return &Store{cas: backend}
}

// Put stores content under its fingerprint and returns the fingerprint.
// Storing the same content twice is a no-op.
func (s *Store) Put(content []byte) (cas.Hash, error) {
	hash := cas.SumB3(content)

	has, err := s.cas.Has(hash)
	if err != nil {
		return cas.Hash{}, fmt.Errorf("check blob %s: %w", hash, err)
	}
	if has {
		return hash, nil
	}

	if err := s.cas.Put(hash, content); err != nil {
		return cas.Hash{}, fmt.Errorf("store blob %s: %w", hash, err)
	}
	return hash, nil
}

// Get returns the content stored under hash. The boolean is false when the
// blob does not exist.
func (s *Store) Get(hash cas.Hash) ([]byte, bool, error) {
	data, err := s.cas.Get(hash)
	if err != nil {
		if errors.Is(err, cas.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read blob %s: %w", hash, err)
	}
	return data, true, nil
}

// MustGet is Get for fingerprints that are referenced by a commit or the
// staging index and therefore must exist.
func (s *Store) MustGet(hash cas.Hash) ([]byte, error) {
	data, ok, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", hash, cas.ErrNotFound)
	}
	return data, nil
}

// Has reports whether a blob exists.
func (s *Store) Has(hash cas.Hash) (bool, error) {
	return s.cas.Has(hash)
}

// Backend returns the CAS holding the blobs.
func (s *Store) Backend() cas.CAS {
	return s.cas
}
