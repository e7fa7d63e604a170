package metadata

import (
	"context"
	"fmt"
)

// EntityCreator creates an entity of one kind in the document store and
// returns the stored record.
type EntityCreator func(ctx context.Context, name string) (NamedRecord, error)

// Creators are the store-side creation collaborators for the two
// allowlist-backed fields.
type Creators struct {
	Correspondent EntityCreator
	DocumentType  EntityCreator
}

// MaterializeNewEntities converts New selections in ok results into Existing
// ones. Each candidate is checked against the allowlist again first, so a
// rerun (or an entity created earlier in the same run) resolves without a
// duplicate create. Created entities are appended to the run-owned allowlist
// and the result is rewritten in place; this is the only mutation of results
// after Extract returns.
func MaterializeNewEntities(ctx context.Context, results Extracted, lists *Allowlists, creators Creators, ec *ExtractionContext) error {
	if err := materializeField(ctx, results[FieldCorrespondent], &lists.Correspondents, creators.Correspondent, ec); err != nil {
		return fmt.Errorf("materialize correspondent: %w", err)
	}
	if err := materializeField(ctx, results[FieldDoctype], &lists.DocumentTypes, creators.DocumentType, ec); err != nil {
		return fmt.Errorf("materialize document type: %w", err)
	}
	return nil
}

func materializeField(ctx context.Context, result *Result, allowlist *[]AllowlistItem, create EntityCreator, ec *ExtractionContext) error {
	if result == nil || result.Outcome != OutcomeOK || result.Entity.Kind != SelectionNew {
		return nil
	}

	if existing, ok := FindMatch(*allowlist, result.Entity.Name); ok {
		result.Entity = ExistingEntity(existing.ID, existing.Name)
		return nil
	}

	created, err := create(ctx, result.Entity.Name)
	if err != nil {
		return err
	}

	*allowlist = append(*allowlist, AllowlistItem{
		ID:             created.ID,
		Name:           created.Name,
		NormalizedName: NormalizeName(created.Name),
	})
	result.Entity = ExistingEntity(created.ID, created.Name)

	ec.logger().Info("metadata.materialize.created",
		"field", result.Field,
		"id", created.ID,
		"name", created.Name,
	)
	return nil
}
