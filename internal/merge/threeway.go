package merge

import (
	"bytes"

	"github.com/javanhut/mygit/internal/cas"
)

// outcome is the per-file verdict of a three-way reconciliation.
type outcome struct {
	hash     *cas.Hash // nil when the file is dropped from the result
	conflict bool
}

// reconcile classifies one path given its fingerprint at the base, current and
// incoming snapshots. A nil fingerprint means the path is absent on that side.
func reconcile(base, current, incoming *cas.Hash) outcome {
	switch {
	case current == nil && incoming == nil:
		return outcome{}

	case current == nil:
		// Deleted here: a modification on the other side wins over the deletion
		if sameHash(base, incoming) {
			return outcome{}
		}
		return outcome{hash: incoming}

	case incoming == nil:
		if sameHash(base, current) {
			return outcome{}
		}
		return outcome{hash: current}
	}

	switch {
	case sameHash(base, current) && !sameHash(base, incoming):
		return outcome{hash: incoming}
	case !sameHash(base, current) && sameHash(base, incoming):
		return outcome{hash: current}
	case *current == *incoming:
		return outcome{hash: current}
	default:
		return outcome{conflict: true}
	}
}

func sameHash(a, b *cas.Hash) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ConflictMarkers synthesizes the content written for a conflicted file.
// Each side is newline-terminated before the next marker.
func ConflictMarkers(currentBranch string, current []byte, incomingBranch string, incoming []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< " + currentBranch + "\n")
	writeTerminated(&buf, current)
	buf.WriteString("=======\n")
	writeTerminated(&buf, incoming)
	buf.WriteString(">>>>>>> " + incomingBranch + "\n")
	return buf.Bytes()
}

func writeTerminated(buf *bytes.Buffer, content []byte) {
	buf.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		buf.WriteByte('\n')
	}
}
