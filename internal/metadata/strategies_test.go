package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspenhq/aspen/internal/llm"
)

// scriptedCompleter replays canned responses in call order and records every
// request it receives.
type scriptedCompleter struct {
	features  llm.Features
	responses []string
	err       error
	requests  []llm.CompletionRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return llm.CompletionResult{}, c.err
	}
	idx := len(c.requests) - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return llm.CompletionResult{Text: c.responses[idx], FinishReason: "stop"}, nil
}

func (c *scriptedCompleter) Features() llm.Features { return c.features }

type staticPrompts map[string]string

func (p staticPrompts) Get(field string) (string, error) {
	template, ok := p[field]
	if !ok {
		return "", fmt.Errorf("no prompt for field %q", field)
	}
	return template, nil
}

func allFieldsPrompts() staticPrompts {
	p := staticPrompts{}
	for _, field := range Fields() {
		p[string(field)] = "Document:\n{{DOCUMENT_TEXT}}"
	}
	return p
}

func newTestContext(ai llm.Completer, prompts PromptSource, settings Settings, lists *Allowlists) *ExtractionContext {
	if lists == nil {
		lists = &Allowlists{}
	}
	return &ExtractionContext{
		AI:         ai,
		Prompts:    prompts,
		Settings:   settings,
		Allowlists: lists,
	}
}

func TestTitleStrategy(t *testing.T) {
	job := Job{Document: Document{ID: 10, Title: "scan_0001.pdf"}, TextContent: "Invoice #42 from ACME"}

	t.Run("extracts a title from fenced output", func(t *testing.T) {
		ai := &scriptedCompleter{
			features:  llm.Features{SupportsJSON: true},
			responses: []string{"```json\n{\"status\": \"OK\", \"value\": \" Invoice #42 \", \"reason\": \"header\"}\n```"},
		}
		ec := newTestContext(ai, staticPrompts{
			"title": "Text: {{DOCUMENT_TEXT}}\nCurrent: {{CURRENT_TITLE}}",
		}, Settings{}, nil)

		result, err := titleStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeOK, result.Outcome)
		assert.Equal(t, "Invoice #42", result.Text)
		assert.Equal(t, "header", result.Message)

		require.Len(t, ai.requests, 1)
		req := ai.requests[0]
		require.Len(t, req.Messages, 2)
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "Text: Invoice #42 from ACME")
		assert.Contains(t, req.Messages[1].Content, "Current: scan_0001.pdf")
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		assert.Equal(t, "title_response", req.ResponseFormat.JSONSchema.Name)
	})

	t.Run("omits the response format when unsupported", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{`{"status": "unknown"}`}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)

		result, err := titleStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeUnknown, result.Outcome)
		require.Len(t, ai.requests, 1)
		assert.Nil(t, ai.requests[0].ResponseFormat)
	})

	t.Run("unparseable output is invalid not unknown", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{"I could not find a title, sorry!"}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)

		result, err := titleStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeInvalid, result.Outcome)
		assert.Equal(t, "Model response could not be parsed as JSON", result.Message)
	})

	t.Run("empty output reports no JSON payload", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{"   "}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)

		result, err := titleStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeInvalid, result.Outcome)
		assert.Equal(t, "Model response did not contain JSON output", result.Message)
	})

	t.Run("transport failures propagate", func(t *testing.T) {
		ai := &scriptedCompleter{err: errors.New("connection refused")}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)

		_, err := titleStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
		require.Error(t, err)
	})

	t.Run("attaches the original on request", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{`{"status": "unknown"}`}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)
		withFile := job
		withFile.OriginalFile = []byte("%PDF-1.4")

		_, err := titleStrategy{}.Extract(context.Background(), withFile, ec, ExtractOptions{IncludeOriginalFile: true})
		require.NoError(t, err)

		require.Len(t, ai.requests, 1)
		assert.Contains(t, ai.requests[0].Messages[1].Content, "Original document (base64-encoded PDF):")
	})
}

func TestDateStrategy(t *testing.T) {
	job := Job{TextContent: "Rechnung vom 1.7.2024"}

	ai := &scriptedCompleter{responses: []string{`{"status": true, "value": "2024/7/1"}`}}
	ec := newTestContext(ai, allFieldsPrompts(), Settings{}, nil)

	result, err := dateStrategy{}.Extract(context.Background(), job, ec, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, "2024-07-01", result.Text)
}

func TestEntityStrategy(t *testing.T) {
	lists := &Allowlists{
		Correspondents: BuildAllowlist([]NamedRecord{
			{ID: 7, Name: "Ärzte GmbH"},
			{ID: 8, Name: "ACME Corp"},
		}),
	}
	job := Job{Document: Document{ID: 11}, TextContent: "Befund"}
	strategy := newCorrespondentStrategy()

	t.Run("resolves against the allowlist across diacritics", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{`{"status": "ok", "value": "arzte gmbh"}`}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, lists)

		result, err := strategy.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeOK, result.Outcome)
		assert.Equal(t, SelectionExisting, result.Entity.Kind)
		assert.Equal(t, 7, result.Entity.ID)
		assert.Equal(t, "Ärzte GmbH", result.Entity.Name)
	})

	t.Run("unlisted entity without creation permission is invalid", func(t *testing.T) {
		ai := &scriptedCompleter{
			responses: []string{`{"status": "ok", "value": {"name": "Fresh Corp", "create": true}}`},
		}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, lists)

		result, err := strategy.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeInvalid, result.Outcome)
		assert.Equal(t, "Correspondent 'Fresh Corp' is not in the allowlist", result.Message)
	})

	t.Run("creation permission yields a new selection", func(t *testing.T) {
		ai := &scriptedCompleter{
			responses: []string{`{"status": "ok", "value": {"name": "Fresh Corp", "create": "yes", "reason": "letterhead"}}`},
		}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{AllowNewCorrespondents: true}, lists)

		result, err := strategy.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeOK, result.Outcome)
		assert.Equal(t, SelectionNew, result.Entity.Kind)
		assert.Equal(t, "Fresh Corp", result.Entity.Name)
		assert.Equal(t, "letterhead", result.Message)
	})

	t.Run("creation permission without a create flag is still invalid", func(t *testing.T) {
		ai := &scriptedCompleter{
			responses: []string{`{"status": "ok", "value": {"name": "Fresh Corp"}}`},
		}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{AllowNewCorrespondents: true}, lists)

		result, err := strategy.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeInvalid, result.Outcome)
	})

	t.Run("unknown status carries the reason", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{`{"status": "unsure", "reason": "no sender visible"}`}}
		ec := newTestContext(ai, allFieldsPrompts(), Settings{}, lists)

		result, err := strategy.Extract(context.Background(), job, ec, ExtractOptions{})
		require.NoError(t, err)

		assert.Equal(t, OutcomeUnknown, result.Outcome)
		assert.Equal(t, "no sender visible", result.Message)
	})

	t.Run("renders allowlist and policy into the prompt", func(t *testing.T) {
		ai := &scriptedCompleter{responses: []string{`{"status": "unknown"}`}}
		existing := 7
		ec := newTestContext(ai, staticPrompts{
			"correspondent": "Allowed:\n{{ALLOWED_CORRESPONDENTS}}\nExisting: {{EXISTING_CORRESPONDENT}}\nNew allowed: {{ALLOW_NEW}}",
		}, Settings{}, lists)
		withExisting := job
		withExisting.Document.Correspondent = &existing

		_, err := strategy.Extract(context.Background(), withExisting, ec, ExtractOptions{})
		require.NoError(t, err)

		require.Len(t, ai.requests, 1)
		prompt := ai.requests[0].Messages[1].Content
		assert.Contains(t, prompt, "1. Ärzte GmbH")
		assert.Contains(t, prompt, "2. ACME Corp")
		assert.Contains(t, prompt, "Existing: 7")
		assert.Contains(t, prompt, "New allowed: false")
	})
}

func TestRenderAllowlistListing(t *testing.T) {
	t.Run("empty list renders None", func(t *testing.T) {
		assert.Equal(t, "None", renderAllowlistListing(nil, 0))
	})

	t.Run("caps the listing when a limit is set", func(t *testing.T) {
		records := make([]NamedRecord, 60)
		for i := range records {
			records[i] = NamedRecord{ID: i + 1, Name: fmt.Sprintf("Type %02d", i+1)}
		}
		listing := renderAllowlistListing(BuildAllowlist(records), 50)

		lines := strings.Split(listing, "\n")
		assert.Len(t, lines, 50)
		assert.Equal(t, "1. Type 01", lines[0])
		assert.Equal(t, "50. Type 50", lines[49])
	})

	t.Run("no limit renders everything", func(t *testing.T) {
		records := make([]NamedRecord, 60)
		for i := range records {
			records[i] = NamedRecord{ID: i + 1, Name: fmt.Sprintf("Corp %02d", i+1)}
		}
		listing := renderAllowlistListing(BuildAllowlist(records), 0)
		assert.Len(t, strings.Split(listing, "\n"), 60)
	})
}

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "bare fence", input: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "fence with prose around it", input: "Sure!\n```json\n{\"a\": 1}\n```\nHope that helps.", want: `{"a": 1}`},
		{name: "no fence", input: `  {"a": 1}  `, want: `{"a": 1}`},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONPayload(tt.input))
		})
	}
}

func TestBuildUserMessage(t *testing.T) {
	ec := newTestContext(&scriptedCompleter{}, staticPrompts{}, Settings{}, nil)

	t.Run("plain when attachment not requested", func(t *testing.T) {
		msg := buildUserMessage(ec, Job{OriginalFile: []byte("%PDF")}, "prompt", false)
		assert.Equal(t, "prompt", msg.Content)
	})

	t.Run("skips oversized originals", func(t *testing.T) {
		big := Job{OriginalFile: make([]byte, maxInlineOriginalBytes+1)}
		msg := buildUserMessage(ec, big, "prompt", true)
		assert.Equal(t, "prompt", msg.Content)
	})

	t.Run("inlines the original as base64", func(t *testing.T) {
		msg := buildUserMessage(ec, Job{OriginalFile: []byte("%PDF")}, "prompt", true)
		assert.Equal(t, "prompt\n\nOriginal document (base64-encoded PDF):\nJVBERg==", msg.Content)
	})
}
