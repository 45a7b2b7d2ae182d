package model

import "time"

// ItemType distinguishes text notes from uploaded binary files.
type ItemType string

const (
	ItemTypeNote ItemType = "note"
	ItemTypeFile ItemType = "file"
)

// Item is a user-authored library entry: a note or an uploaded file,
// grouped under a subject and an optional subfolder.
//
// Content is inline UTF-8 text for notes and a raw byte blob for files.
// List responses omit Content; file content is fetched lazily via the
// download endpoint.
type Item struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Subfolder string    `json:"subfolder"`
	Name      string    `json:"name"`
	Type      ItemType  `json:"type"`
	Content   []byte    `json:"-"`
	MimeType  *string   `json:"mimeType,omitempty"`
	Size      *int64    `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteContent returns the item content as text. Only meaningful for notes.
func (i *Item) NoteContent() string {
	return string(i.Content)
}

// CreateItemRequest is the JSON payload for creating a note (file uploads
// arrive as multipart form data instead).
type CreateItemRequest struct {
	ID        string  `json:"id"`
	Subject   string  `json:"subject"`
	Subfolder string  `json:"subfolder"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Content   *string `json:"content"`
	MimeType  *string `json:"mimeType"`
	Size      *int64  `json:"size"`
}

// UpdateItemRequest carries a partial item update. Nil fields are left
// untouched; in particular an omitted content never nulls a stored note.
type UpdateItemRequest struct {
	Name      *string `json:"name"`
	Subfolder *string `json:"subfolder"`
	Content   *string `json:"content"`
}
