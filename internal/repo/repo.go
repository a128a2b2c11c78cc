// Package repo ties the stores of a working copy together behind a single
// Repository handle.
package repo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
	"github.com/javanhut/mygit/internal/config"
	"github.com/javanhut/mygit/internal/index"
	"github.com/javanhut/mygit/internal/merge"
	"github.com/javanhut/mygit/internal/objects"
	"github.com/javanhut/mygit/internal/refs"
	"github.com/javanhut/mygit/internal/store"
)

// DirName is the repository directory inside the working tree.
const DirName = ".mygit"

var (
	ErrNotInitialized     = errors.New("not a mygit repository (run 'mygit init')")
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrEmptyMessage       = errors.New("commit message required")
	ErrPathNotFound       = errors.New("path not found")
	ErrOutsideRepository  = errors.New("path is outside the working tree")
)

// Repository is an open working copy. It owns every store and must be closed.
type Repository struct {
	WorkDir string // working tree root
	Dir     string // WorkDir/.mygit

	Blobs   *objects.Store
	Commits *commit.Graph
	Refs    *refs.Manager
	Index   *index.Index
	DB      *store.DB
	Config  *config.Config
	Logger  *slog.Logger

	merger    *merge.Engine
	blobCAS   *cas.FileCAS
	commitCAS *cas.FileCAS
}

type options struct {
	logger      *slog.Logger
	now         func() time.Time
	configFiles *config.Files
}

// Option configures Init and Open.
type Option func(*options)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithConfigFiles overrides which config files are read.
func WithConfigFiles(files config.Files) Option {
	return func(o *options) { o.configFiles = &files }
}

// Init creates a repository in workDir and opens it. The default branch is
// taken from core.defaultBranch and starts unborn.
func Init(workDir string, opts ...Option) (*Repository, error) {
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(workDir, DirName)

	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, dir)
	}

	for _, sub := range []string{"objects", "commits", filepath.Join("refs", "heads")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", sub, err)
		}
	}

	r, err := open(workDir, dir, opts)
	if err != nil {
		return nil, err
	}

	branch := r.Config.Core.DefaultBranch
	if branch == "" {
		branch = config.DefaultBranch
	}
	if err := r.Refs.Init(branch); err != nil {
		r.Close()
		return nil, err
	}

	r.Logger.Info("initialized repository", "dir", dir, "branch", branch)
	return r, nil
}

// Open opens the repository whose working tree is workDir.
func Open(workDir string, opts ...Option) (*Repository, error) {
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(workDir, DirName)

	for _, required := range []string{"HEAD", "objects", "commits", filepath.Join("refs", "heads")} {
		if _, err := os.Stat(filepath.Join(dir, required)); err != nil {
			return nil, ErrNotInitialized
		}
	}
	return open(workDir, dir, opts)
}

func open(workDir, dir string, opts []Option) (*Repository, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	files := config.DefaultFiles(dir)
	if o.configFiles != nil {
		files = *o.configFiles
	}
	cfg, err := config.Load(files)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		WorkDir: workDir,
		Dir:     dir,
		Config:  cfg,
		Logger:  o.logger,
	}

	if r.blobCAS, err = cas.NewFileCAS(filepath.Join(dir, "objects")); err != nil {
		return nil, err
	}
	if r.commitCAS, err = cas.NewFileCAS(filepath.Join(dir, "commits")); err != nil {
		r.Close()
		return nil, err
	}
	if r.DB, err = store.Open(filepath.Join(dir, "mygit.db")); err != nil {
		r.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if r.Refs, err = refs.NewManager(dir); err != nil {
		r.Close()
		return nil, err
	}

	r.Blobs = objects.NewStore(r.blobCAS)
	r.Commits = commit.NewGraph(r.commitCAS)
	if o.now != nil {
		r.Commits.Now = o.now
	}
	r.Index = index.New(r.DB)

	r.merger = merge.NewEngine(r.Blobs, r.Commits, r.Refs, r.Index, r.DB)
	r.merger.Worktree = worktree{root: workDir}
	r.merger.Logger = r.Logger
	r.merger.Author = cfg.Author()

	return r, nil
}

// Close releases the database and object stores. Closing twice is a no-op.
func (r *Repository) Close() error {
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
		r.DB = nil
	}
	if r.blobCAS != nil {
		errs = append(errs, r.blobCAS.Close())
		r.blobCAS = nil
	}
	if r.commitCAS != nil {
		errs = append(errs, r.commitCAS.Close())
		r.commitCAS = nil
	}
	return errors.Join(errs...)
}

// worktree writes files relative to the working tree root.
type worktree struct {
	root string
}

func (w worktree) WriteFile(path string, data []byte) error {
	full := filepath.Join(w.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0644)
}
