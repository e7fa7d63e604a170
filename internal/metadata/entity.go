package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aspenhq/aspen/internal/prompts"
)

// entityStrategy covers the two allowlist-backed fields. Correspondent and
// doctype differ only in which allowlist they resolve against, which policy
// flag allows creation, and their prompt variables.
type entityStrategy struct {
	field        Field
	system       string
	responseName string
	listVar      string
	existingVar  string
	listingCap   int // 0 = unlimited

	allowlist  func(*Allowlists) []AllowlistItem
	allowNew   func(Settings) bool
	existingID func(Document) *int
}

func newCorrespondentStrategy() entityStrategy {
	return entityStrategy{
		field:        FieldCorrespondent,
		system:       `You extract the correspondent (sender) of documents. Respond in JSON. Use status "unknown" if unsure.`,
		responseName: "correspondent_response",
		listVar:      "ALLOWED_CORRESPONDENTS",
		existingVar:  "EXISTING_CORRESPONDENT",
		allowlist:    func(lists *Allowlists) []AllowlistItem { return lists.Correspondents },
		allowNew:     func(s Settings) bool { return s.AllowNewCorrespondents },
		existingID:   func(d Document) *int { return d.Correspondent },
	}
}

func newDoctypeStrategy() entityStrategy {
	return entityStrategy{
		field:        FieldDoctype,
		system:       `You extract the document type classification. Respond in JSON. Use status "unknown" if unsure.`,
		responseName: "doctype_response",
		listVar:      "ALLOWED_DOCTYPES",
		existingVar:  "EXISTING_DOCTYPE",
		listingCap:   50,
		allowlist:    func(lists *Allowlists) []AllowlistItem { return lists.DocumentTypes },
		allowNew:     func(s Settings) bool { return s.AllowNewDocumentTypes },
		existingID:   func(d Document) *int { return d.DocumentType },
	}
}

func (s entityStrategy) Field() Field { return s.field }

func (s entityStrategy) Extract(ctx context.Context, job Job, ec *ExtractionContext, opts ExtractOptions) (*Result, error) {
	template, err := ec.Prompts.Get(string(s.field))
	if err != nil {
		return nil, err
	}

	allowlist := s.allowlist(ec.Allowlists)
	allowNew := s.allowNew(ec.Settings)

	rendered := prompts.Render(template, map[string]string{
		"DOCUMENT_TEXT": job.TextContent,
		s.existingVar:   formatExistingID(s.existingID(job.Document)),
		s.listVar:       renderAllowlistListing(allowlist, s.listingCap),
		"ALLOW_NEW":     strconv.FormatBool(allowNew),
	})

	schema := EntityResponseSchema()
	parsed, invalidMsg, err := callModel(ctx, ec, job, modelCall{
		field:          s.field,
		system:         s.system,
		rendered:       rendered,
		responseName:   s.responseName,
		schema:         schema,
		attachOriginal: opts.IncludeOriginalFile,
	})
	if err != nil {
		return nil, err
	}
	if invalidMsg != "" {
		return invalidResult(s.field, invalidMsg), nil
	}

	resp, err := NormalizeEntityResponse(parsed)
	if err != nil {
		return invalidResult(s.field, err.Error()), nil
	}
	if err := validateCanonical(schema, resp); err != nil {
		return invalidResult(s.field, err.Error()), nil
	}

	if resp.Status == StatusUnknown {
		return unknownResult(s.field, resp.Reason), nil
	}

	candidate := resp.Value
	if existing, ok := FindMatch(allowlist, candidate.Name); ok {
		return okEntityResult(s.field, ExistingEntity(existing.ID, existing.Name), candidate.Reason), nil
	}

	if allowNew && candidate.Create != nil && *candidate.Create {
		return okEntityResult(s.field, NewEntity(candidate.Name), candidate.Reason), nil
	}

	return invalidResult(s.field, fmt.Sprintf("%s '%s' is not in the allowlist", s.field.Label(), candidate.Name)), nil
}

func formatExistingID(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}

// renderAllowlistListing renders a numbered listing for the prompt, or
// "None" when the allowlist is empty.
func renderAllowlistListing(items []AllowlistItem, limit int) string {
	if len(items) == 0 {
		return "None"
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item.Name)
	}
	return strings.Join(lines, "\n")
}
