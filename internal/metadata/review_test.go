package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildReviewNote(t *testing.T) {
	t.Run("empty results yield no note", func(t *testing.T) {
		assert.Empty(t, BuildReviewNote(Extracted{}))
	})

	t.Run("all ok yields no note", func(t *testing.T) {
		results := Extracted{
			FieldTitle: okTextResult(FieldTitle, "Invoice", ""),
			FieldDate:  okTextResult(FieldDate, "2024-07-01", ""),
		}
		assert.Empty(t, BuildReviewNote(results))
	})

	t.Run("lists issues in field order with messages", func(t *testing.T) {
		results := Extracted{
			FieldDoctype: invalidResult(FieldDoctype, "Doctype 'Flyer' is not in the allowlist"),
			FieldTitle:   unknownResult(FieldTitle, "Confidence too low"),
			FieldDate:    okTextResult(FieldDate, "2024-07-01", ""),
		}

		want := "Aspen requested manual review for:\n" +
			"- Title: Confidence too low\n" +
			"- Document type: Doctype 'Flyer' is not in the allowlist"
		assert.Equal(t, want, BuildReviewNote(results))
	})

	t.Run("falls back to the outcome when the message is blank", func(t *testing.T) {
		results := Extracted{
			FieldDoctype: invalidResult(FieldDoctype, "  "),
		}

		want := "Aspen requested manual review for:\n" +
			"- Document type: Marked as invalid"
		assert.Equal(t, want, BuildReviewNote(results))
	})

	t.Run("unknown fallback", func(t *testing.T) {
		results := Extracted{
			FieldCorrespondent: unknownResult(FieldCorrespondent, ""),
		}

		want := "Aspen requested manual review for:\n" +
			"- Correspondent: Marked as unknown"
		assert.Equal(t, want, BuildReviewNote(results))
	})
}
