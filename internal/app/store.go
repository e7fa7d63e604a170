package app

import (
	"context"

	"github.com/aspenhq/aspen/internal/paperless"
)

// Store is the document-store surface the run loop depends on. The
// paperless client implements it; tests substitute a fake.
type Store interface {
	FetchTagByName(ctx context.Context, name string) (*paperless.Tag, error)
	CreateTag(ctx context.Context, name string) (paperless.Tag, error)

	ListCorrespondents(ctx context.Context) ([]paperless.Correspondent, error)
	ListDocumentTypes(ctx context.Context) ([]paperless.DocumentType, error)
	CreateCorrespondent(ctx context.Context, name string) (paperless.Correspondent, error)
	CreateDocumentType(ctx context.Context, name string) (paperless.DocumentType, error)

	FetchNextQueued(ctx context.Context, tagID int) (*paperless.Document, error)
	Retrieve(ctx context.Context, id int) (paperless.Document, error)
	Update(ctx context.Context, id int, payload paperless.UpdatePayload) (paperless.Document, error)
	DownloadOriginal(ctx context.Context, id int) ([]byte, error)
	FetchText(ctx context.Context, id int) (string, error)
}
