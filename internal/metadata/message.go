package metadata

import (
	"encoding/base64"

	"github.com/aspenhq/aspen/internal/llm"
)

// Originals larger than this are never inlined into a prompt.
const maxInlineOriginalBytes = 2 * 1024 * 1024

// buildUserMessage wraps the rendered prompt into a user message, appending
// the base64-encoded original document when the retry requested it and the
// file fits the inline size gate.
func buildUserMessage(ec *ExtractionContext, job Job, rendered string, attachOriginal bool) llm.Message {
	if !attachOriginal || len(job.OriginalFile) == 0 {
		return llm.Message{Role: llm.RoleUser, Content: rendered}
	}

	if len(job.OriginalFile) > maxInlineOriginalBytes {
		ec.logger().Warn("metadata.message.original_too_large",
			"document_id", job.Document.ID,
			"size", len(job.OriginalFile),
			"limit", maxInlineOriginalBytes,
		)
		return llm.Message{Role: llm.RoleUser, Content: rendered}
	}

	encoded := base64.StdEncoding.EncodeToString(job.OriginalFile)
	return llm.Message{
		Role:    llm.RoleUser,
		Content: rendered + "\n\nOriginal document (base64-encoded PDF):\n" + encoded,
	}
}
