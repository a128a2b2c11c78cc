// Package ignore matches working-tree paths against .mygitignore patterns.
package ignore

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileName is the ignore file read from the root of the working tree.
const FileName = ".mygitignore"

// RepoDir is never tracked regardless of patterns.
const RepoDir = ".mygit"

type rule struct {
	matcher glob.Glob
	dirOnly bool
}

// Matcher decides whether a slash-separated relative path is ignored.
type Matcher struct {
	rules []rule
}

// Load reads workDir/.mygitignore. A missing file yields a Matcher that only
// ignores the repository directory.
func Load(workDir string) (*Matcher, error) {
	data, err := os.ReadFile(filepath.Join(workDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse compiles ignore patterns, one per line. Blank lines and lines starting
// with '#' are skipped. A trailing '/' restricts a pattern to directories.
func Parse(data []byte) (*Matcher, error) {
	m := &Matcher{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := m.Add(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ignore patterns: %w", err)
	}
	return m, nil
}

// Add compiles and appends a single pattern.
func (m *Matcher) Add(pattern string) error {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.Trim(pattern, "/")
	if pattern == "" {
		return nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}
	m.rules = append(m.rules, rule{matcher: g, dirOnly: dirOnly})
	return nil
}

// Match reports whether rel (slash-separated, relative to the working tree)
// should be skipped. Patterns are tried against the full path and the base name.
func (m *Matcher) Match(rel string, isDir bool) bool {
	name := path.Base(rel)
	if name == RepoDir || rel == RepoDir || strings.HasPrefix(rel, RepoDir+"/") {
		return true
	}

	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.matcher.Match(rel) || r.matcher.Match(name) {
			return true
		}
	}
	return false
}
