package metadata

import (
	"context"

	"github.com/aspenhq/aspen/internal/prompts"
)

type titleStrategy struct{}

func (titleStrategy) Field() Field { return FieldTitle }

func (s titleStrategy) Extract(ctx context.Context, job Job, ec *ExtractionContext, opts ExtractOptions) (*Result, error) {
	template, err := ec.Prompts.Get(string(FieldTitle))
	if err != nil {
		return nil, err
	}

	rendered := prompts.Render(template, map[string]string{
		"DOCUMENT_TEXT": job.TextContent,
		"CURRENT_TITLE": job.Document.Title,
	})

	schema := TitleResponseSchema()
	parsed, invalidMsg, err := callModel(ctx, ec, job, modelCall{
		field:          FieldTitle,
		system:         `You are an assistant that extracts document titles. Always reply in JSON. If unsure, set status to "unknown".`,
		rendered:       rendered,
		responseName:   "title_response",
		schema:         schema,
		attachOriginal: opts.IncludeOriginalFile,
	})
	if err != nil {
		return nil, err
	}
	if invalidMsg != "" {
		return invalidResult(FieldTitle, invalidMsg), nil
	}

	resp, err := NormalizeTitleResponse(parsed)
	if err != nil {
		return invalidResult(FieldTitle, err.Error()), nil
	}
	if err := validateCanonical(schema, resp); err != nil {
		return invalidResult(FieldTitle, err.Error()), nil
	}

	if resp.Status == StatusUnknown {
		return unknownResult(FieldTitle, resp.Reason), nil
	}
	return okTextResult(FieldTitle, *resp.Value, resp.Reason), nil
}
