package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single chat message sent to the completion provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// JSONSchemaFormat constrains the model output to a JSON schema when the
// provider supports structured output.
type JSONSchemaFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict,omitempty"`
}

// ResponseFormat selects the provider-side output constraint. Type is one of
// "text", "json_object", or "json_schema".
type ResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// CompletionRequest is a provider-agnostic chat completion call.
type CompletionRequest struct {
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    float32
	MaxTokens      int
}

// CompletionResult carries the first choice's text and finish reason.
type CompletionResult struct {
	Text         string
	FinishReason string
}

// Features are the provider capability flags that gate strategy behavior:
// schema-constrained prompting and the file-attachment retry.
type Features struct {
	SupportsJSON   bool
	SupportsImages bool
}

// Completer is the completion collaborator the extraction pipeline depends
// on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Features() Features
}
