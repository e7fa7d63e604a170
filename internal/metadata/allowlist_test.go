package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "ACME Corp", want: "acme corp"},
		{name: "strips diacritics", input: "Ärzte GmbH", want: "arzte gmbh"},
		{name: "collapses punctuation runs", input: "A.C.M.E. -- Corp", want: "a c m e corp"},
		{name: "trims edges", input: "  ACME  ", want: "acme"},
		{name: "keeps digits", input: "Büro 24/7", want: "buro 24 7"},
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: "@#!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestFindMatch(t *testing.T) {
	items := BuildAllowlist([]NamedRecord{
		{ID: 1, Name: "Ärzte GmbH"},
		{ID: 2, Name: "ACME Corp"},
		{ID: 3, Name: "acme corp"},
	})

	t.Run("matches across diacritics and casing", func(t *testing.T) {
		item, ok := FindMatch(items, "arzte gmbh")
		require.True(t, ok)
		assert.Equal(t, 1, item.ID)
		assert.Equal(t, "Ärzte GmbH", item.Name)

		item, ok = FindMatch(items, "ÄRZTE   GmbH")
		require.True(t, ok)
		assert.Equal(t, 1, item.ID)
	})

	t.Run("returns the first of equivalent entries", func(t *testing.T) {
		item, ok := FindMatch(items, "Acme CORP")
		require.True(t, ok)
		assert.Equal(t, 2, item.ID)
	})

	t.Run("no partial matches", func(t *testing.T) {
		_, ok := FindMatch(items, "acme")
		assert.False(t, ok)
	})

	t.Run("misses report false", func(t *testing.T) {
		_, ok := FindMatch(items, "Globex")
		assert.False(t, ok)
	})
}
