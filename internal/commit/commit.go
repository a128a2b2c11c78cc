// Package commit implements the commit record and the commit graph.
//
// This package provides:
// - Commit records linking a file snapshot to a parent and an optional merge parent
// - A canonical line-based encoding whose BLAKE3 digest is the commit fingerprint
// - A Graph persisting commits in their own address space, separate from blobs
// - First-parent ancestor traversal used by log, merge and push
package commit

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/javanhut/mygit/internal/cas"
)

var (
	// ErrEmptyCommit is returned when a root commit would carry no files.
	ErrEmptyCommit = errors.New("nothing to commit")

	// ErrDanglingParent marks a graph edge pointing at a commit that does not exist.
	ErrDanglingParent = errors.New("dangling parent reference")

	// ErrInvalidCommit is returned for records that fail validation.
	ErrInvalidCommit = errors.New("invalid commit")
)

// Commit is an immutable node of the history graph.
type Commit struct {
	Hash        cas.Hash            // Fingerprint of the canonical encoding
	Parent      *cas.Hash           // nil for a root commit
	MergeParent *cas.Hash           // Second parent, merge commits only
	Message     string              // Commit message
	Timestamp   time.Time           // Creation time, UTC with second precision
	Files       map[string]cas.Hash // Snapshot: path -> blob fingerprint
	Branch      string              // Branch the commit was created on
	Author      string              // "Name <email>", may be empty
	IsMerge     bool                // True iff MergeParent is set
}

// IsRoot reports whether the commit has no parent.
func (c *Commit) IsRoot() bool {
	return c.Parent == nil
}

// Paths returns the snapshot's paths in sorted order.
func (c *Commit) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for p := range c.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Summary returns the first line of the message.
func (c *Commit) Summary() string {
	first, _, _ := strings.Cut(c.Message, "\n")
	return first
}

// validate checks the structural rules every commit must satisfy.
func (c *Commit) validate() error {
	if c.IsMerge != (c.MergeParent != nil) {
		return fmt.Errorf("%w: merge flag does not match merge parent", ErrInvalidCommit)
	}
	if c.MergeParent != nil && c.Parent == nil {
		return fmt.Errorf("%w: merge commit without first parent", ErrInvalidCommit)
	}
	if strings.ContainsAny(c.Branch, "\n\r") || strings.ContainsAny(c.Author, "\n\r") {
		return fmt.Errorf("%w: header fields must be single-line", ErrInvalidCommit)
	}
	for path := range c.Files {
		if err := ValidatePath(path); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCommit, err)
		}
	}
	return nil
}

// ValidatePath checks that a snapshot path is relative, slash-separated and
// free of traversal segments.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return errors.New("empty path")
	case strings.ContainsAny(path, "\n\r\x00"):
		return fmt.Errorf("path %q contains control characters", path)
	case strings.HasPrefix(path, "/"):
		return fmt.Errorf("path %q is absolute", path)
	case strings.Contains(path, "\\"):
		return fmt.Errorf("path %q is not slash-separated", path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("path %q has an invalid segment", path)
		}
	}
	return nil
}

// encodeCommit creates the canonical encoding for a commit record.
// Files are written in sorted order so equal records encode identically.
func encodeCommit(c *Commit) []byte {
	var buf bytes.Buffer

	if c.Parent != nil {
		buf.WriteString("parent ")
		buf.WriteString(c.Parent.String())
		buf.WriteByte('\n')
	}
	if c.MergeParent != nil {
		buf.WriteString("merge-parent ")
		buf.WriteString(c.MergeParent.String())
		buf.WriteByte('\n')
	}

	buf.WriteString("branch ")
	buf.WriteString(c.Branch)
	buf.WriteByte('\n')

	if c.Author != "" {
		buf.WriteString("author ")
		buf.WriteString(c.Author)
		buf.WriteByte('\n')
	}

	buf.WriteString("timestamp ")
	buf.WriteString(strconv.FormatInt(c.Timestamp.Unix(), 10))
	buf.WriteByte('\n')

	for _, path := range c.Paths() {
		buf.WriteString("file ")
		buf.WriteString(c.Files[path].String())
		buf.WriteByte(' ')
		buf.WriteString(path)
		buf.WriteByte('\n')
	}

	// Empty line before message
	buf.WriteByte('\n')
	buf.WriteString(c.Message)

	return buf.Bytes()
}

// decodeCommit parses the canonical encoding. The hash is not recomputed here;
// the CAS layer already verified it.
func decodeCommit(hash cas.Hash, data []byte) (*Commit, error) {
	header, message, found := bytes.Cut(data, []byte("\n\n"))
	if !found {
		return nil, fmt.Errorf("%w: missing message separator", ErrInvalidCommit)
	}

	c := &Commit{
		Hash:    hash,
		Message: string(message),
		Files:   make(map[string]cas.Hash),
	}

	for _, line := range strings.Split(string(header), "\n") {
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed header line %q", ErrInvalidCommit, line)
		}

		switch key {
		case "parent":
			h, err := cas.ParseHash(value)
			if err != nil {
				return nil, fmt.Errorf("invalid parent hash: %w", err)
			}
			c.Parent = &h

		case "merge-parent":
			h, err := cas.ParseHash(value)
			if err != nil {
				return nil, fmt.Errorf("invalid merge parent hash: %w", err)
			}
			c.MergeParent = &h
			c.IsMerge = true

		case "branch":
			c.Branch = value

		case "author":
			c.Author = value

		case "timestamp":
			sec, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp: %w", err)
			}
			c.Timestamp = time.Unix(sec, 0).UTC()

		case "file":
			hexHash, path, ok := strings.Cut(value, " ")
			if !ok {
				return nil, fmt.Errorf("%w: malformed file line %q", ErrInvalidCommit, line)
			}
			h, err := cas.ParseHash(hexHash)
			if err != nil {
				return nil, fmt.Errorf("invalid file hash for %s: %w", path, err)
			}
			c.Files[path] = h

		default:
			return nil, fmt.Errorf("%w: unknown header %q", ErrInvalidCommit, key)
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
