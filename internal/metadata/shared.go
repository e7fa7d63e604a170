package metadata

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aspenhq/aspen/internal/llm"
)

// modelCall is what a strategy hands to callModel: the fully rendered user
// prompt plus the field's schema and response name.
type modelCall struct {
	field          Field
	system         string
	rendered       string
	responseName   string
	schema         map[string]any
	attachOriginal bool
}

// callModel invokes the completion provider and extracts a parsed JSON
// payload from its answer. The returned error is transport-shaped and must
// propagate out of the pipeline; per-field problems come back as a non-empty
// invalidMsg with a nil error.
func callModel(ctx context.Context, ec *ExtractionContext, job Job, call modelCall) (parsed any, invalidMsg string, err error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: call.system},
		buildUserMessage(ec, job, call.rendered, call.attachOriginal),
	}

	var format *llm.ResponseFormat
	if ec.AI.Features().SupportsJSON {
		format = &llm.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &llm.JSONSchemaFormat{
				Name:   call.responseName,
				Schema: call.schema,
				Strict: true,
			},
		}
	}

	result, err := ec.AI.Complete(ctx, llm.CompletionRequest{
		Messages:       messages,
		ResponseFormat: format,
	})
	if err != nil {
		return nil, "", err
	}

	payload := extractJSONPayload(result.Text)
	if payload == "" {
		ec.logger().Warn("metadata.call.no_json_payload",
			"field", call.field,
			"preview", truncate(result.Text, 500),
		)
		return nil, "Model response did not contain JSON output", nil
	}

	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		ec.logger().Warn("metadata.call.parse_error",
			"field", call.field,
			"preview", truncate(result.Text, 500),
			"error", err,
		)
		return nil, "Model response could not be parsed as JSON", nil
	}

	return parsed, "", nil
}

var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\n(.+?)```")

// extractJSONPayload returns the literal content of the first fenced code
// block, or the whole trimmed text when no fence is present.
func extractJSONPayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	if match := fencedBlockPattern.FindStringSubmatch(trimmed); match != nil {
		return strings.TrimSpace(match[1])
	}
	return trimmed
}

func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	return value[:maxLength-3] + "..."
}
