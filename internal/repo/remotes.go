package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/javanhut/mygit/internal/refs"
	"github.com/javanhut/mygit/internal/remote"
)

const (
	remoteKeyPrefix = "remote."
	// DefaultRemote is pushed to when no remote is named.
	DefaultRemote = "origin"
)

// Remote is a named push destination on the local filesystem.
type Remote struct {
	Name string
	Path string
}

// AddRemote records name -> path. A relative path is taken from the working
// tree root and stored absolute.
func (r *Repository) AddRemote(name, path string) error {
	if err := refs.ValidateName(name); err != nil {
		return fmt.Errorf("remote name: %w", err)
	}
	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.WorkDir, abs)
	}
	if err := r.DB.PutConfig(remoteKeyPrefix+name, abs); err != nil {
		return fmt.Errorf("save remote %s: %w", name, err)
	}
	return nil
}

// Remotes lists the configured remotes in name order.
func (r *Repository) Remotes() ([]Remote, error) {
	names, paths, err := r.DB.ConfigWithPrefix(remoteKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]Remote, 0, len(names))
	for _, n := range names {
		out = append(out, Remote{Name: n, Path: paths[n]})
	}
	return out, nil
}

// RemoveRemote forgets a remote.
func (r *Repository) RemoveRemote(name string) error {
	if _, err := r.remotePath(name); err != nil {
		return err
	}
	return r.DB.RemoveConfig(remoteKeyPrefix + name)
}

func (r *Repository) remotePath(name string) (string, error) {
	remotes, err := r.Remotes()
	if err != nil {
		return "", err
	}
	for _, rm := range remotes {
		if rm.Name == name {
			return rm.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", remote.ErrRemoteNotFound, name)
}

// Push copies branch's history to the named remote and updates its tip there.
// Empty arguments select origin and the current branch.
func (r *Repository) Push(ctx context.Context, remoteName, branch string) (remote.Stats, error) {
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	if branch == "" {
		var err error
		if branch, err = r.Refs.CurrentBranch(); err != nil {
			return remote.Stats{}, err
		}
	}

	path, err := r.remotePath(remoteName)
	if err != nil {
		return remote.Stats{}, err
	}

	dst, err := remote.OpenBare(path)
	if err != nil {
		return remote.Stats{}, fmt.Errorf("open remote %s: %w", remoteName, err)
	}
	defer dst.Close()

	src := &remote.Store{Blobs: r.Blobs, Commits: r.Commits, Refs: r.Refs}
	return remote.Push(ctx, src, dst, branch, r.Logger.With("remote", remoteName))
}
