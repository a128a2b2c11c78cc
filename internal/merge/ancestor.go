package merge

import (
	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/commit"
)

// FindCommonAncestor returns the merge base of current and incoming.
//
// Every first-parent ancestor of current is collected first, then incoming's
// first-parent chain is walked and the first commit found in that set wins.
// The result is the nearest shared commit along incoming's path, which in
// histories with several merge points need not be the lowest common ancestor.
func FindCommonAncestor(g *commit.Graph, current, incoming cas.Hash) (cas.Hash, bool, error) {
	seen, err := g.AncestorSet(current)
	if err != nil {
		return cas.Hash{}, false, err
	}

	for c, err := range g.Ancestors(incoming) {
		if err != nil {
			return cas.Hash{}, false, err
		}
		if _, ok := seen[c.Hash]; ok {
			return c.Hash, true, nil
		}
	}
	return cas.Hash{}, false, nil
}
