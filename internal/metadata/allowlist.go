package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NamedRecord is a raw {id, name} row from the document store.
type NamedRecord struct {
	ID   int
	Name string
}

// AllowlistItem is an entity the extractor may resolve against without
// creation permission.
type AllowlistItem struct {
	ID             int
	Name           string
	NormalizedName string
}

// Allowlists holds the per-kind entity allowlists for a single pipeline run.
// The slices are owned by the run and appended to by MaterializeNewEntities
// when new entities are created; nothing removes items during a run.
type Allowlists struct {
	Correspondents []AllowlistItem
	DocumentTypes  []AllowlistItem
}

var diacriticStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeName folds a display name into the comparison key used for
// allowlist matching: NFKD decomposition with combining marks removed,
// lowercased, with every non-alphanumeric run collapsed to a single space.
// "Ärzte GmbH" and "arzte gmbh" normalize to the same key.
func NormalizeName(value string) string {
	folded, _, err := transform.String(diacriticStripper, value)
	if err != nil {
		folded = value
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingSpace := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// BuildAllowlist maps raw entity rows to allowlist items, computing the
// normalized comparison key for each. Order is preserved.
func BuildAllowlist(records []NamedRecord) []AllowlistItem {
	items := make([]AllowlistItem, len(records))
	for i, record := range records {
		items[i] = AllowlistItem{
			ID:             record.ID,
			Name:           record.Name,
			NormalizedName: NormalizeName(record.Name),
		}
	}
	return items
}

// FindMatch returns the first item whose normalized name equals the
// normalized query. Matching is structural only; no fuzzy or partial match.
func FindMatch(items []AllowlistItem, name string) (AllowlistItem, bool) {
	normalized := NormalizeName(name)
	for _, item := range items {
		if item.NormalizedName == normalized {
			return item, true
		}
	}
	return AllowlistItem{}, false
}
