package refs

import (
	"fmt"
	"strings"

	"github.com/javanhut/mygit/internal/cas"
)

// Head is either OnBranch or Detached.
type Head interface {
	isHead()
	String() string
}

// OnBranch is a HEAD that follows a branch.
type OnBranch struct {
	Name string
}

// Detached is a HEAD pinned to a commit.
type Detached struct {
	Commit cas.Hash
}

func (OnBranch) isHead() {}
func (Detached) isHead() {}

func (b OnBranch) String() string { return b.Name }
func (d Detached) String() string { return "detached at " + d.Commit.Short() }

// ParseHead decodes the content of a HEAD file.
func ParseHead(content string) (Head, error) {
	content = strings.TrimSpace(content)

	if name, ok := strings.CutPrefix(content, headRefPrefix); ok {
		if err := ValidateName(name); err != nil {
			return nil, fmt.Errorf("HEAD: %w", err)
		}
		return OnBranch{Name: name}, nil
	}

	h, err := cas.ParseHash(content)
	if err != nil {
		return nil, fmt.Errorf("invalid HEAD %q: %w", content, err)
	}
	return Detached{Commit: h}, nil
}

// FormatHead encodes h as HEAD file content.
func FormatHead(h Head) string {
	switch h := h.(type) {
	case OnBranch:
		return headRefPrefix + h.Name + "\n"
	case Detached:
		return h.Commit.String() + "\n"
	default:
		panic(fmt.Sprintf("unknown head type %T", h))
	}
}
