package metadata

import (
	"context"

	"github.com/aspenhq/aspen/internal/prompts"
)

type dateStrategy struct{}

func (dateStrategy) Field() Field { return FieldDate }

func (s dateStrategy) Extract(ctx context.Context, job Job, ec *ExtractionContext, opts ExtractOptions) (*Result, error) {
	template, err := ec.Prompts.Get(string(FieldDate))
	if err != nil {
		return nil, err
	}

	rendered := prompts.Render(template, map[string]string{
		"DOCUMENT_TEXT": job.TextContent,
		"CURRENT_DATE":  job.Document.Created,
	})

	schema := DateResponseSchema()
	parsed, invalidMsg, err := callModel(ctx, ec, job, modelCall{
		field:          FieldDate,
		system:         `You extract the main document date in ISO format (YYYY-MM-DD). Respond in JSON. Use status "unknown" if unsure.`,
		rendered:       rendered,
		responseName:   "date_response",
		schema:         schema,
		attachOriginal: opts.IncludeOriginalFile,
	})
	if err != nil {
		return nil, err
	}
	if invalidMsg != "" {
		return invalidResult(FieldDate, invalidMsg), nil
	}

	resp, err := NormalizeDateResponse(parsed)
	if err != nil {
		return invalidResult(FieldDate, err.Error()), nil
	}
	if err := validateCanonical(schema, resp); err != nil {
		return invalidResult(FieldDate, err.Error()), nil
	}

	if resp.Status == StatusUnknown {
		return unknownResult(FieldDate, resp.Reason), nil
	}
	return okTextResult(FieldDate, *resp.Value, resp.Reason), nil
}
