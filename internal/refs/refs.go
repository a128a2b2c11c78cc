// Package refs manages branch tips and HEAD.
//
// Each branch is a file under refs/heads holding the hex fingerprint of its tip
// commit, or nothing while the branch is unborn. HEAD names the checked-out
// branch.
package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/javanhut/mygit/internal/cas"
)

var (
	ErrBranchNotFound = errors.New("branch not found")
	ErrBranchExists   = errors.New("branch already exists")
	ErrInvalidName    = errors.New("invalid branch name")
	ErrDetachedHead   = errors.New("HEAD is detached")
)

const headRefPrefix = "ref: refs/heads/"

// Manager reads and writes references inside a repository directory.
type Manager struct {
	dir      string
	headsDir string
}

// NewManager returns a Manager for the given repository directory
// (.mygit or a bare destination). The refs/heads directory is created if missing.
func NewManager(dir string) (*Manager, error) {
	headsDir := filepath.Join(dir, "refs", "heads")
	if err := os.MkdirAll(headsDir, 0755); err != nil {
		return nil, fmt.Errorf("create refs dir: %w", err)
	}
	return &Manager{dir: dir, headsDir: headsDir}, nil
}

// Init creates an unborn default branch and points HEAD at it.
func (m *Manager) Init(defaultBranch string) error {
	if err := m.CreateBranch(defaultBranch, nil); err != nil && !errors.Is(err, ErrBranchExists) {
		return err
	}
	return m.writeHead(OnBranch{Name: defaultBranch})
}

// ValidateName checks that name can be used as a branch.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidName, name)
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return fmt.Errorf("%w: %q has a leading or trailing '/'", ErrInvalidName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidName, name)
	case strings.Contains(name, "//"):
		return fmt.Errorf("%w: %q contains an empty component", ErrInvalidName, name)
	case strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("%w: %q ends with .lock", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '\\' || r == '~' || r == ':' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return fmt.Errorf("%w: component %q starts with '.'", ErrInvalidName, seg)
		}
	}
	return nil
}

// GetTip returns the commit a branch points at. The boolean is false for an
// unborn branch.
func (m *Manager) GetTip(branch string) (cas.Hash, bool, error) {
	if err := ValidateName(branch); err != nil {
		return cas.Hash{}, false, err
	}

	data, err := os.ReadFile(m.refPath(branch))
	if err != nil {
		if os.IsNotExist(err) {
			return cas.Hash{}, false, fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
		}
		return cas.Hash{}, false, fmt.Errorf("read ref %s: %w", branch, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return cas.Hash{}, false, nil
	}

	h, err := cas.ParseHash(content)
	if err != nil {
		return cas.Hash{}, false, fmt.Errorf("ref %s: %w", branch, err)
	}
	return h, true, nil
}

// SetTip points branch at hash, creating the ref if needed.
func (m *Manager) SetTip(branch string, hash cas.Hash) error {
	if err := ValidateName(branch); err != nil {
		return err
	}
	return writeFileAtomic(m.refPath(branch), []byte(hash.String()+"\n"))
}

// CreateBranch creates a new branch at tip. A nil tip creates an unborn branch.
func (m *Manager) CreateBranch(name string, tip *cas.Hash) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	path := m.refPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create ref parent dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrBranchExists, name)
		}
		return fmt.Errorf("create ref %s: %w", name, err)
	}

	var content string
	if tip != nil {
		content = tip.String() + "\n"
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write ref %s: %w", name, err)
	}
	return f.Close()
}

// Exists reports whether a branch record exists.
func (m *Manager) Exists(branch string) bool {
	if ValidateName(branch) != nil {
		return false
	}
	info, err := os.Stat(m.refPath(branch))
	return err == nil && !info.IsDir()
}

// ListBranches returns every branch name in sorted order.
func (m *Manager) ListBranches() ([]string, error) {
	var names []string
	err := filepath.WalkDir(m.headsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(m.headsDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Head returns the current HEAD.
func (m *Manager) Head() (Head, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, "HEAD"))
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	return ParseHead(string(data))
}

// CurrentBranch returns the branch HEAD points at.
func (m *Manager) CurrentBranch() (string, error) {
	head, err := m.Head()
	if err != nil {
		return "", err
	}
	on, ok := head.(OnBranch)
	if !ok {
		return "", ErrDetachedHead
	}
	return on.Name, nil
}

// SetCurrent points HEAD at an existing branch.
func (m *Manager) SetCurrent(branch string) error {
	if !m.Exists(branch) {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
	}
	return m.writeHead(OnBranch{Name: branch})
}

func (m *Manager) writeHead(h Head) error {
	return writeFileAtomic(filepath.Join(m.dir, "HEAD"), []byte(FormatHead(h)))
}

// refPath returns the file path for a branch reference.
func (m *Manager) refPath(name string) string {
	return filepath.Join(m.headsDir, filepath.FromSlash(name))
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
