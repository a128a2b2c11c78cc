// Package diffview renders unified diffs between two versions of a file.
package diffview

import (
	"bytes"
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	Context int // context lines, DefaultContext when zero
}

// Unified returns a unified diff turning old into new for path. A nil old
// renders as an added file, a nil new as a deleted one. Identical inputs give
// an empty string.
func Unified(path string, old, new []byte, opt Options) (string, error) {
	if bytes.Equal(old, new) && (old == nil) == (new == nil) {
		return "", nil
	}

	fromFile, toFile := "a/"+path, "b/"+path
	if old == nil {
		fromFile = "/dev/null"
	}
	if new == nil {
		toFile = "/dev/null"
	}

	if isBinary(old) || isBinary(new) {
		return fmt.Sprintf("Binary files %s and %s differ\n", fromFile, toFile), nil
	}

	ctx := opt.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(old)),
		B:        splitLinesKeepNL(string(new)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}
	return s, nil
}

// splitLinesKeepNL splits s into lines that keep their trailing newline.
// A final line without one gets a newline so hunks stay well formed.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

func isBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
