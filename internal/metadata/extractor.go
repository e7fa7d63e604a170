package metadata

import "context"

// Extract runs every enabled strategy over the job, in the fixed strategy
// order. A strategy whose first attempt is not ok gets exactly one retry
// with the original file attached, provided the environment allows uploads,
// the provider supports images, and the job carries the binary. The second
// attempt's result is final either way.
//
// Field-shaped problems land in the returned map as unknown/invalid results;
// only transport failures from the collaborators are returned as an error.
func Extract(ctx context.Context, job Job, ec *ExtractionContext, strategies []Strategy) (Extracted, error) {
	results := make(Extracted)

	for _, strategy := range strategies {
		if !ec.fieldEnabled(strategy.Field()) {
			continue
		}

		result, err := strategy.Extract(ctx, job, ec, ExtractOptions{})
		if err != nil {
			return nil, err
		}
		if result.Outcome == OutcomeOK || !shouldAttachOriginal(job, ec) {
			results[strategy.Field()] = result
			continue
		}

		ec.logger().Warn("metadata.extract.retry_with_original",
			"field", strategy.Field(),
			"document_id", job.Document.ID,
		)

		result, err = strategy.Extract(ctx, job, ec, ExtractOptions{IncludeOriginalFile: true})
		if err != nil {
			return nil, err
		}
		results[strategy.Field()] = result
	}

	return results, nil
}

func shouldAttachOriginal(job Job, ec *ExtractionContext) bool {
	if !ec.Settings.UploadOriginal {
		return false
	}
	if !ec.AI.Features().SupportsImages {
		return false
	}
	return len(job.OriginalFile) > 0
}

// RequiresReview reports whether any populated result needs a human look.
// An empty map does not.
func RequiresReview(results Extracted) bool {
	for _, result := range results {
		if result != nil && result.Outcome != OutcomeOK {
			return true
		}
	}
	return false
}
