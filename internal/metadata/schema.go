package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response schemas serve two purposes: they are handed to the completion
// provider as a strict json_schema response format when the provider
// supports structured output, and they back a local self-check of the
// canonical response after normalization.

func reasonProperty() map[string]any {
	return map[string]any{"type": "string", "maxLength": maxReasonLength}
}

func statusProperty() map[string]any {
	return map[string]any{"enum": []any{"ok", "unknown"}}
}

// TitleResponseSchema describes the canonical title response.
func TitleResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"status": statusProperty(),
			"value": map[string]any{
				"type":      []any{"string", "null"},
				"maxLength": maxTitleLength,
			},
			"reason": reasonProperty(),
		},
		"required": []any{"status", "value"},
	}
}

// DateResponseSchema describes the canonical date response.
func DateResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"status": statusProperty(),
			"value": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "null"},
					map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				},
			},
			"reason": reasonProperty(),
		},
		"required": []any{"status", "value"},
	}
}

// EntityResponseSchema describes the canonical correspondent/doctype
// response.
func EntityResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"status": statusProperty(),
			"value": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "null"},
					map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"properties": map[string]any{
							"name":   map[string]any{"type": "string", "minLength": 1},
							"create": map[string]any{"type": "boolean"},
							"reason": reasonProperty(),
						},
						"required": []any{"name"},
					},
				},
			},
			"reason": reasonProperty(),
		},
		"required": []any{"status", "value"},
	}
}

func responseSchema(field Field) map[string]any {
	switch field {
	case FieldDate:
		return DateResponseSchema()
	case FieldCorrespondent, FieldDoctype:
		return EntityResponseSchema()
	default:
		return TitleResponseSchema()
	}
}

// validateCanonical checks a normalized response against its schema. The
// normalizer already enforces the same constraints; this guards against the
// two drifting apart.
func validateCanonical(schemaMap map[string]any, canonical any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("response.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	encoded, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	var v any
	if err := json.Unmarshal(encoded, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
