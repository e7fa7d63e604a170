package metadata

import "strings"

const reviewNoteHeader = "Aspen requested manual review for:"

// BuildReviewNote renders the human-readable note listing every field that
// needs attention, one bullet per issue in field-declaration order. It
// returns "" when all populated results are ok.
func BuildReviewNote(results Extracted) string {
	var issues []string
	for _, field := range Fields() {
		result := results[field]
		if result == nil || result.Outcome == OutcomeOK {
			continue
		}
		issues = append(issues, "- "+buildIssue(result))
	}

	if len(issues) == 0 {
		return ""
	}
	return reviewNoteHeader + "\n" + strings.Join(issues, "\n")
}

func buildIssue(result *Result) string {
	detail := strings.TrimSpace(result.Message)
	if detail == "" {
		detail = "Marked as " + string(result.Outcome)
	}
	return result.Field.Label() + ": " + detail
}
