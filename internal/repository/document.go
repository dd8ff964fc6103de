package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentQuery holds filter and limit/offset pagination parameters for
// listing an owner's documents.
type DocumentQuery struct {
	Tag    string // exact match when non-empty
	Limit  int
	Offset int
}

// DocumentPatch describes a partial update. A nil Title leaves the title
// unchanged. Tag is applied only when SetTag is true; a nil Tag then clears
// the tag. updated_at is bumped on every update.
type DocumentPatch struct {
	Title  *string
	Tag    *string
	SetTag bool
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
//
// Every read and mutation entry point that takes an ownerID filters on it:
// a row owned by someone else behaves exactly like a missing row.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindOwned returns the document with the given id if it belongs to
	// ownerID; otherwise sql.ErrNoRows.
	FindOwned(ctx context.Context, ownerID, id string) (*model.Document, error)

	// List returns a page of the owner's documents ordered by creation time
	// descending (ties broken by id descending), plus the total row count
	// for the same filter.
	List(ctx context.Context, ownerID string, q DocumentQuery) (*PageResult[model.Document], error)

	// Update applies a partial update by id and returns the updated row,
	// or sql.ErrNoRows if the row is gone.
	Update(ctx context.Context, id string, patch DocumentPatch) (*model.Document, error)

	// Delete removes a document by id. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error

	// ListDistinctTags returns the owner's distinct non-null tags, ascending.
	ListDistinctTags(ctx context.Context, ownerID string) ([]string, error)
}
