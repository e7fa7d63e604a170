// Package paperless is the document-store client. It speaks the paperless-ngx
// REST API: documents, tags, correspondents, document types, plus the
// original-file download and text fetch the extraction pipeline needs.
package paperless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/aspenhq/aspen/internal/common"
)

const listPageSize = 250

// Client talks to one paperless-ngx instance with token authentication.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger

	// retry ceiling for idempotent reads; writes are never retried
	maxRetryElapsed time.Duration
}

// Config for the paperless client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		token:           cfg.Token,
		http:            &http.Client{Timeout: cfg.Timeout},
		log:             logger,
		maxRetryElapsed: 15 * time.Second,
	}
}

// FetchTagByName returns the tag with the given name (case-insensitive), or
// nil when no such tag exists.
func (c *Client) FetchTagByName(ctx context.Context, name string) (*Tag, error) {
	query := url.Values{}
	query.Set("name__iexact", name)
	query.Set("page_size", "1")

	var page listResponse[Tag]
	if err := c.getJSON(ctx, "/api/tags/", query, &page); err != nil {
		return nil, fmt.Errorf("fetch tag %q: %w", name, err)
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, name string) (Tag, error) {
	var tag Tag
	if err := c.writeJSON(ctx, http.MethodPost, "/api/tags/", map[string]any{"name": name}, &tag); err != nil {
		return Tag{}, fmt.Errorf("create tag %q: %w", name, err)
	}
	return tag, nil
}

// ListCorrespondents returns all correspondents ordered by name.
func (c *Client) ListCorrespondents(ctx context.Context) ([]Correspondent, error) {
	items, err := listAll[Correspondent](ctx, c, "/api/correspondents/")
	if err != nil {
		return nil, fmt.Errorf("list correspondents: %w", err)
	}
	return items, nil
}

// ListDocumentTypes returns all document types ordered by name.
func (c *Client) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	items, err := listAll[DocumentType](ctx, c, "/api/document_types/")
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	return items, nil
}

// CreateCorrespondent creates a correspondent.
func (c *Client) CreateCorrespondent(ctx context.Context, name string) (Correspondent, error) {
	var created Correspondent
	if err := c.writeJSON(ctx, http.MethodPost, "/api/correspondents/", map[string]any{"name": name}, &created); err != nil {
		return Correspondent{}, fmt.Errorf("create correspondent %q: %w", name, err)
	}
	return created, nil
}

// CreateDocumentType creates a document type.
func (c *Client) CreateDocumentType(ctx context.Context, name string) (DocumentType, error) {
	var created DocumentType
	if err := c.writeJSON(ctx, http.MethodPost, "/api/document_types/", map[string]any{"name": name}, &created); err != nil {
		return DocumentType{}, fmt.Errorf("create document type %q: %w", name, err)
	}
	return created, nil
}

// FetchNextQueued returns the oldest document carrying the queue tag, or nil
// when the queue is empty.
func (c *Client) FetchNextQueued(ctx context.Context, tagID int) (*Document, error) {
	query := url.Values{}
	query.Set("tags__id__all", strconv.Itoa(tagID))
	query.Set("ordering", "added")
	query.Set("page_size", "1")

	var page listResponse[Document]
	if err := c.getJSON(ctx, "/api/documents/", query, &page); err != nil {
		return nil, fmt.Errorf("fetch queued document: %w", err)
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

// Retrieve returns one document by id.
func (c *Client) Retrieve(ctx context.Context, id int) (Document, error) {
	var doc Document
	if err := c.getJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), nil, &doc); err != nil {
		return Document{}, fmt.Errorf("retrieve document %d: %w", id, err)
	}
	return doc, nil
}

// Update applies a partial update to a document.
func (c *Client) Update(ctx context.Context, id int, payload UpdatePayload) (Document, error) {
	if payload.RemoveInboxTags == nil {
		noRemove := false
		payload.RemoveInboxTags = &noRemove
	}

	var doc Document
	if err := c.writeJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/documents/%d/", id), payload, &doc); err != nil {
		return Document{}, fmt.Errorf("update document %d: %w", id, err)
	}
	return doc, nil
}

// DownloadOriginal fetches the originally ingested binary for a document.
func (c *Client) DownloadOriginal(ctx context.Context, id int) ([]byte, error) {
	query := url.Values{}
	query.Set("original", "true")

	data, err := c.getRaw(ctx, fmt.Sprintf("/api/documents/%d/download/", id), query)
	if err != nil {
		return nil, fmt.Errorf("download original %d: %w", id, err)
	}
	return data, nil
}

// FetchText returns the stored OCR/text content of a document.
func (c *Client) FetchText(ctx context.Context, id int) (string, error) {
	query := url.Values{}
	query.Set("fields", "content")

	var doc struct {
		Content string `json:"content"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), query, &doc); err != nil {
		return "", fmt.Errorf("fetch document text %d: %w", id, err)
	}
	return doc.Content, nil
}

func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	query := url.Values{}
	query.Set("ordering", "name")
	query.Set("page_size", strconv.Itoa(listPageSize))
	query.Set("page", "1")

	var items []T
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))

		var resp listResponse[T]
		if err := c.getJSON(ctx, path, query, &resp); err != nil {
			return nil, err
		}
		items = append(items, resp.Results...)
		if resp.Next == "" || len(resp.Results) == 0 {
			return items, nil
		}
	}
}

// getJSON performs an idempotent read with backoff on transient failures.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	rid := uuid.New().String()
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.maxRetryElapsed),
	), ctx)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn("paperless.get.retryable_error", "req_id", rid, "path", path, "error", err)
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			c.log.Warn("paperless.get.server_error", "req_id", rid, "path", path, "status", resp.StatusCode)
			return fmt.Errorf("paperless status %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("paperless status 404: %w", common.ErrNotFound))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("paperless status %d: %s", resp.StatusCode, truncateBody(raw)))
		}
		body = raw
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	c.log.Debug("paperless.get.ok", "req_id", rid, "path", path, "bytes", len(body))
	return body, nil
}

// writeJSON performs a non-idempotent call; no retries.
func (c *Client) writeJSON(ctx context.Context, method, path string, payload, out any) error {
	rid := uuid.New().String()

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("paperless status 404: %w", common.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paperless status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	c.log.Debug("paperless.write.ok", "req_id", rid, "method", method, "path", path, "status", resp.StatusCode)

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
}

func truncateBody(raw []byte) string {
	const limit = 300
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
