package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/mygit/internal/cas"
)

func h(s string) *cas.Hash {
	v := cas.SumB3([]byte(s))
	return &v
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name                    string
		base, current, incoming *cas.Hash
		want                    *cas.Hash
		conflict                bool
	}{
		{"deleted both sides", h("A"), nil, nil, nil, false},
		{"we deleted, they kept", h("A"), nil, h("A"), nil, false},
		{"we deleted, they modified", h("A"), nil, h("B"), h("B"), false},
		{"they deleted, we kept", h("A"), h("A"), nil, nil, false},
		{"they deleted, we modified", h("A"), h("B"), nil, h("B"), false},
		{"only they changed", h("A"), h("A"), h("B"), h("B"), false},
		{"only we changed", h("A"), h("B"), h("A"), h("B"), false},
		{"same edit both sides", h("A"), h("B"), h("B"), h("B"), false},
		{"unchanged", h("A"), h("A"), h("A"), h("A"), false},
		{"divergent edits", h("A"), h("B"), h("C"), nil, true},
		{"added only by them", nil, nil, h("N"), h("N"), false},
		{"added only by us", nil, h("N"), nil, h("N"), false},
		{"added identically", nil, h("N"), h("N"), h("N"), false},
		{"added differently", nil, h("N"), h("M"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile(tt.base, tt.current, tt.incoming)
			assert.Equal(t, tt.conflict, got.conflict)
			if tt.want == nil {
				assert.Nil(t, got.hash)
				return
			}
			require.NotNil(t, got.hash)
			assert.Equal(t, *tt.want, *got.hash)
		})
	}
}

func TestConflictMarkers(t *testing.T) {
	got := ConflictMarkers("main", []byte("ours"), "feature", []byte("theirs\n"))
	assert.Equal(t, "<<<<<<< main\nours\n=======\ntheirs\n>>>>>>> feature\n", string(got))

	got = ConflictMarkers("main", nil, "dev", []byte("x"))
	assert.Equal(t, "<<<<<<< main\n=======\nx\n>>>>>>> dev\n", string(got))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)

	for _, name := range []string{"auto", "ours", "theirs", "union"} {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, Strategy(name), s)
	}

	_, err = ParseStrategy("base")
	assert.Error(t, err)
}
