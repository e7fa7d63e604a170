package paperless

// Document is a paperless-ngx document as returned by the documents API.
// Correspondent and DocumentType are null when unset.
type Document struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Created       string `json:"created"`
	Added         string `json:"added"`
	Correspondent *int   `json:"correspondent"`
	DocumentType  *int   `json:"document_type"`
	Tags          []int  `json:"tags"`
}

// Tag is a paperless-ngx tag.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Correspondent is a paperless-ngx correspondent.
type Correspondent struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DocumentType is a paperless-ngx document type.
type DocumentType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UpdatePayload is a partial document update. Nil fields are omitted.
// RemoveInboxTags goes through the store's dedicated inbox-removal path and
// must stay separate from ordinary tag edits.
type UpdatePayload struct {
	Title           *string `json:"title,omitempty"`
	Correspondent   *int    `json:"correspondent,omitempty"`
	DocumentType    *int    `json:"document_type,omitempty"`
	Created         *string `json:"created,omitempty"`
	Tags            []int   `json:"tags,omitempty"`
	RemoveInboxTags *bool   `json:"remove_inbox_tags,omitempty"`
}

type listResponse[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}
