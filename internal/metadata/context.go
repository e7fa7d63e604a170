package metadata

import (
	"log/slog"

	"github.com/aspenhq/aspen/internal/llm"
)

// PromptSource supplies the prompt template for a field.
type PromptSource interface {
	Get(field string) (string, error)
}

// Settings are the extraction policies resolved from configuration.
type Settings struct {
	EnabledFields          []Field
	AllowNewCorrespondents bool
	AllowNewDocumentTypes  bool
	// UploadOriginal enables the file-attachment retry when the provider
	// also supports it and the job carries the original binary.
	UploadOriginal bool
}

// ExtractionContext bundles the collaborators one pipeline run depends on.
// The allowlists are owned by the run; MaterializeNewEntities appends to
// them when entities are created.
type ExtractionContext struct {
	AI         llm.Completer
	Prompts    PromptSource
	Settings   Settings
	Allowlists *Allowlists
	Logger     *slog.Logger
}

func (ec *ExtractionContext) fieldEnabled(field Field) bool {
	for _, enabled := range ec.Settings.EnabledFields {
		if enabled == field {
			return true
		}
	}
	return false
}

func (ec *ExtractionContext) logger() *slog.Logger {
	if ec.Logger != nil {
		return ec.Logger
	}
	return slog.Default()
}

// Document is the snapshot of store-side document attributes the strategies
// read. IDs for correspondent and document type are nil when unset.
type Document struct {
	ID            int
	Title         string
	Created       string
	Correspondent *int
	DocumentType  *int
	Tags          []int
}

// Job is the immutable per-document work item passed through the pipeline.
// TextContent may be empty; OriginalFile is nil when the binary was not
// fetched.
type Job struct {
	Document     Document
	TextContent  string
	OriginalFile []byte
}
