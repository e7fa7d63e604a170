// Package app wires the collaborators together and drives the per-document
// processing loop: fetch the next queued document, extract metadata,
// materialize new entities, and write the results and workflow tags back.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aspenhq/aspen/internal/common"
	"github.com/aspenhq/aspen/internal/llm"
	"github.com/aspenhq/aspen/internal/metadata"
	"github.com/aspenhq/aspen/internal/paperless"
)

// App holds the resolved collaborators for one processing run.
type App struct {
	Config     *common.Config
	Store      Store
	AI         llm.Completer
	Prompts    metadata.PromptSource
	Logger     *slog.Logger
	Strategies []metadata.Strategy
}

func New(cfg *common.Config, store Store, ai llm.Completer, prompts metadata.PromptSource, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:     cfg,
		Store:      store,
		AI:         ai,
		Prompts:    prompts,
		Logger:     logger,
		Strategies: metadata.NewStrategies(),
	}
}

// Run drains the queue: one document is fully processed and written back
// before the next is fetched. A stop request via ctx is honored at the
// iteration boundary only, never mid-document.
func (a *App) Run(ctx context.Context) error {
	tags, err := a.ensureTags(ctx)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			a.Logger.Info("app.run.stopped", "reason", err)
			return nil
		}

		processed, err := a.processNext(ctx, tags)
		if err != nil {
			return err
		}
		if !processed {
			a.Logger.Debug("app.run.queue_empty")
			return nil
		}
	}
}

// processNext handles at most one queued document. It returns false when
// the queue is empty.
func (a *App) processNext(ctx context.Context, tags metadata.WorkflowTags) (bool, error) {
	queued, err := a.Store.FetchNextQueued(ctx, tags.Queue)
	if err != nil {
		return false, err
	}
	if queued == nil {
		return false, nil
	}

	doc, err := a.Store.Retrieve(ctx, queued.ID)
	if err != nil {
		return false, err
	}

	a.Logger.Info("app.document.start", "document_id", doc.ID, "title", doc.Title)

	allowlists, err := a.loadAllowlists(ctx)
	if err != nil {
		return false, err
	}

	job := a.buildJob(ctx, doc)

	ec := &metadata.ExtractionContext{
		AI:      a.AI,
		Prompts: a.Prompts,
		Settings: metadata.Settings{
			EnabledFields:          enabledFields(a.Config.Metadata),
			AllowNewCorrespondents: a.Config.Metadata.AllowNewCorrespondents,
			AllowNewDocumentTypes:  a.Config.Metadata.AllowNewDocumentTypes,
			UploadOriginal:         a.Config.AI.UploadOriginal,
		},
		Allowlists: allowlists,
		Logger:     a.Logger,
	}

	results, err := metadata.Extract(ctx, job, ec, a.Strategies)
	if err == nil {
		err = metadata.MaterializeNewEntities(ctx, results, allowlists, metadata.Creators{
			Correspondent: func(ctx context.Context, name string) (metadata.NamedRecord, error) {
				created, cerr := a.Store.CreateCorrespondent(ctx, name)
				return metadata.NamedRecord{ID: created.ID, Name: created.Name}, cerr
			},
			DocumentType: func(ctx context.Context, name string) (metadata.NamedRecord, error) {
				created, cerr := a.Store.CreateDocumentType(ctx, name)
				return metadata.NamedRecord{ID: created.ID, Name: created.Name}, cerr
			},
		}, ec)
	}
	if err != nil {
		// Whole-document failure: mark errored and dequeue, commit nothing.
		a.Logger.Error("app.document.failed", "document_id", doc.ID, "error", err)
		if terr := a.markErrored(ctx, doc, tags); terr != nil {
			return false, fmt.Errorf("mark document %d errored: %w", doc.ID, terr)
		}
		return true, nil
	}

	review := metadata.RequiresReview(results)
	plan := metadata.PlanStatusTags(doc.Tags, tags, review)

	payload := buildUpdatePayload(results)
	payload.Tags = plan.WithQueue
	if _, err := a.Store.Update(ctx, doc.ID, payload); err != nil {
		return false, err
	}
	if plan.NeedsDequeue() {
		if _, err := a.Store.Update(ctx, doc.ID, paperless.UpdatePayload{Tags: plan.QueueRemoved}); err != nil {
			return false, err
		}
	}

	status := "processed"
	if review {
		status = "review"
	}
	a.Logger.Info("app.document.done",
		"document_id", doc.ID,
		"status", status,
		"results", summarizeResults(results),
	)
	if note := metadata.BuildReviewNote(results); note != "" {
		a.Logger.Info("app.document.review_note", "document_id", doc.ID, "note", note)
	}

	return true, nil
}

func (a *App) markErrored(ctx context.Context, doc paperless.Document, tags metadata.WorkflowTags) error {
	plan := metadata.PlanErrorTags(doc.Tags, tags)
	if _, err := a.Store.Update(ctx, doc.ID, paperless.UpdatePayload{Tags: plan.WithQueue}); err != nil {
		return err
	}
	if plan.NeedsDequeue() {
		if _, err := a.Store.Update(ctx, doc.ID, paperless.UpdatePayload{Tags: plan.QueueRemoved}); err != nil {
			return err
		}
	}
	return nil
}

// ensureTags resolves the four workflow tags by name, creating any that are
// missing.
func (a *App) ensureTags(ctx context.Context) (metadata.WorkflowTags, error) {
	names := a.Config.Paperless.Tags

	queue, err := a.ensureTag(ctx, names.Queue)
	if err != nil {
		return metadata.WorkflowTags{}, err
	}
	processed, err := a.ensureTag(ctx, names.Processed)
	if err != nil {
		return metadata.WorkflowTags{}, err
	}
	review, err := a.ensureTag(ctx, names.Review)
	if err != nil {
		return metadata.WorkflowTags{}, err
	}
	errored, err := a.ensureTag(ctx, names.Error)
	if err != nil {
		return metadata.WorkflowTags{}, err
	}

	return metadata.WorkflowTags{
		Queue:     queue,
		Processed: processed,
		Review:    review,
		Error:     errored,
	}, nil
}

func (a *App) ensureTag(ctx context.Context, name string) (int, error) {
	existing, err := a.Store.FetchTagByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	a.Logger.Info("app.tags.create_missing", "tag", name)
	created, err := a.Store.CreateTag(ctx, name)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// loadAllowlists fetches both entity allowlists. The two reads are
// independent and run concurrently; both must complete before extraction
// starts.
func (a *App) loadAllowlists(ctx context.Context) (*metadata.Allowlists, error) {
	var (
		correspondents []paperless.Correspondent
		doctypes       []paperless.DocumentType
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		correspondents, err = a.Store.ListCorrespondents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		doctypes, err = a.Store.ListDocumentTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, common.WrapError(err, "load allowlists")
	}

	correspondentRecords := make([]metadata.NamedRecord, len(correspondents))
	for i, c := range correspondents {
		correspondentRecords[i] = metadata.NamedRecord{ID: c.ID, Name: c.Name}
	}
	doctypeRecords := make([]metadata.NamedRecord, len(doctypes))
	for i, d := range doctypes {
		doctypeRecords[i] = metadata.NamedRecord{ID: d.ID, Name: d.Name}
	}

	a.Logger.Debug("app.allowlists.loaded",
		"correspondents", len(correspondentRecords),
		"document_types", len(doctypeRecords),
	)

	return &metadata.Allowlists{
		Correspondents: metadata.BuildAllowlist(correspondentRecords),
		DocumentTypes:  metadata.BuildAllowlist(doctypeRecords),
	}, nil
}

// buildJob snapshots the document into an immutable work item. Missing text
// and a failed original download degrade with a warning; they never abort
// the run.
func (a *App) buildJob(ctx context.Context, doc paperless.Document) metadata.Job {
	text := doc.Content
	if text == "" {
		fetched, err := a.Store.FetchText(ctx, doc.ID)
		if err != nil {
			a.Logger.Warn("app.job.text_fetch_failed", "document_id", doc.ID, "error", err)
		} else {
			text = fetched
		}
	}

	var original []byte
	if a.Config.AI.UploadOriginal {
		data, err := a.Store.DownloadOriginal(ctx, doc.ID)
		if err != nil {
			a.Logger.Warn("app.job.original_download_failed", "document_id", doc.ID, "error", err)
		} else {
			original = data
		}
	}

	return metadata.Job{
		Document: metadata.Document{
			ID:            doc.ID,
			Title:         doc.Title,
			Created:       doc.Created,
			Correspondent: doc.Correspondent,
			DocumentType:  doc.DocumentType,
			Tags:          doc.Tags,
		},
		TextContent:  text,
		OriginalFile: original,
	}
}

func enabledFields(cfg common.MetadataConfig) []metadata.Field {
	names := cfg.EnabledFields()
	fields := make([]metadata.Field, len(names))
	for i, name := range names {
		fields[i] = metadata.Field(name)
	}
	return fields
}

// buildUpdatePayload maps ok results onto the store's update fields. New
// entity selections never reach the payload; the materializer converts or
// drops them first.
func buildUpdatePayload(results metadata.Extracted) paperless.UpdatePayload {
	var payload paperless.UpdatePayload

	if result := results[metadata.FieldTitle]; result != nil && result.Outcome == metadata.OutcomeOK {
		title := result.Text
		payload.Title = &title
	}
	if result := results[metadata.FieldDate]; result != nil && result.Outcome == metadata.OutcomeOK {
		created := result.Text
		payload.Created = &created
	}
	if result := results[metadata.FieldCorrespondent]; result != nil &&
		result.Outcome == metadata.OutcomeOK && result.Entity.Kind == metadata.SelectionExisting {
		id := result.Entity.ID
		payload.Correspondent = &id
	}
	if result := results[metadata.FieldDoctype]; result != nil &&
		result.Outcome == metadata.OutcomeOK && result.Entity.Kind == metadata.SelectionExisting {
		id := result.Entity.ID
		payload.DocumentType = &id
	}

	return payload
}

func summarizeResults(results metadata.Extracted) map[string]any {
	summary := make(map[string]any, len(results))
	for _, field := range metadata.Fields() {
		result := results[field]
		if result == nil {
			continue
		}
		if result.Outcome != metadata.OutcomeOK {
			summary[string(field)] = map[string]string{
				"status": string(result.Outcome),
				"reason": result.Message,
			}
			continue
		}
		switch field {
		case metadata.FieldCorrespondent, metadata.FieldDoctype:
			summary[string(field)] = result.Entity.Name
		default:
			summary[string(field)] = result.Text
		}
	}
	return summary
}
