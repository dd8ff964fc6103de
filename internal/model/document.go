package model

import "time"

// Document represents a stored file owned by a single user.
// This is a pure domain model with no database-specific dependencies or tags.
// Filename and StoragePath are internal (never serialized to clients); the
// API returns the View projection instead.
type Document struct {
	ID               string
	UserID           string
	Title            string
	Filename         string // system-generated stored name
	OriginalFilename string // client-supplied name, display/download only
	StoragePath      string // file store key
	Size             int64
	ContentType      string
	Tag              *string // nil = untagged; never an empty string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DocumentView is the client-facing projection of a Document.
type DocumentView struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	OriginalFilename string    `json:"originalFilename"`
	Tag              *string   `json:"tag"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"contentType"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// View returns the public projection of the document.
func (d *Document) View() DocumentView {
	return DocumentView{
		ID:               d.ID,
		Title:            d.Title,
		OriginalFilename: d.OriginalFilename,
		Tag:              d.Tag,
		Size:             d.Size,
		ContentType:      d.ContentType,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
