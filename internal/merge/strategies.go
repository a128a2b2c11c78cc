package merge

import (
	"bytes"
	"fmt"
)

// Strategy selects how whole-file conflicts are settled.
type Strategy string

const (
	StrategyAuto   Strategy = "auto"   // Leave conflict markers for manual resolution (default)
	StrategyOurs   Strategy = "ours"   // Keep the current branch's version
	StrategyTheirs Strategy = "theirs" // Take the incoming branch's version
	StrategyUnion  Strategy = "union"  // Current content followed by incoming content
)

// ParseStrategy converts a user-supplied name to a Strategy.
// An empty name selects StrategyAuto.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyOurs, StrategyTheirs, StrategyUnion:
		return s, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want auto, ours, theirs or union)", name)
	}
}

// resolve produces the content for a conflicted file. The boolean reports
// whether the conflict was settled; only auto leaves it open.
func (s Strategy) resolve(currentBranch string, current []byte, incomingBranch string, incoming []byte) ([]byte, bool) {
	switch s {
	case StrategyOurs:
		return current, true
	case StrategyTheirs:
		return incoming, true
	case StrategyUnion:
		var buf bytes.Buffer
		writeTerminated(&buf, current)
		buf.Write(incoming)
		return buf.Bytes(), true
	default:
		return ConflictMarkers(currentBranch, current, incomingBranch, incoming), false
	}
}
