package metadata

import "context"

// ExtractOptions controls a single strategy invocation. IncludeOriginalFile
// is set only on the pipeline's retry attempt.
type ExtractOptions struct {
	IncludeOriginalFile bool
}

// Strategy extracts one metadata field. Implementations recover every
// field-shaped problem into an unknown or invalid Result; only transport
// failures from the collaborators come back as errors.
type Strategy interface {
	Field() Field
	Extract(ctx context.Context, job Job, ec *ExtractionContext, opts ExtractOptions) (*Result, error)
}

// NewStrategies returns the closed strategy set in field-declaration order:
// title, correspondent, date, doctype. The order is fixed so runs are
// reproducible; there is no cross-field data dependency.
func NewStrategies() []Strategy {
	return []Strategy{
		titleStrategy{},
		newCorrespondentStrategy(),
		dateStrategy{},
		newDoctypeStrategy(),
	}
}
