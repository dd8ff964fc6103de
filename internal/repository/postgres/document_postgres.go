package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const documentColumns = `id, user_id, title, filename, original_filename, storage_path, size, content_type, tag, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var tag sql.NullString
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Title,
		&d.Filename,
		&d.OriginalFilename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&tag,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if tag.Valid {
		d.Tag = &tag.String
	}
	return &d, nil
}

func nullableTag(tag *string) sql.NullString {
	if tag == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *tag, Valid: true}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, user_id, title, filename, original_filename, storage_path, size, content_type, tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.Filename,
		doc.OriginalFilename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		nullableTag(doc.Tag),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindOwned fetches a single document by id, scoped to its owner.
// A row owned by a different user scans as sql.ErrNoRows.
func (r *DocumentPostgres) FindOwned(ctx context.Context, ownerID, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// List returns the owner's documents using LIMIT/OFFSET pagination and a
// total count under the same filter.
func (r *DocumentPostgres) List(ctx context.Context, ownerID string, pq repository.DocumentQuery) (*repository.PageResult[model.Document], error) {
	where := `WHERE user_id = $1`
	args := []any{ownerID}
	if pq.Tag != "" {
		where += ` AND tag = $2`
		args = append(args, pq.Tag)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(
		`SELECT %s FROM documents %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, pq.Limit, pq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// Update applies a partial update and returns the updated row.
// updated_at is always bumped, even for an empty patch.
func (r *DocumentPostgres) Update(ctx context.Context, id string, patch repository.DocumentPatch) (*model.Document, error) {
	set := []string{"updated_at = now()"}
	args := []any{}
	i := 1
	if patch.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", i))
		args = append(args, *patch.Title)
		i++
	}
	if patch.SetTag {
		set = append(set, fmt.Sprintf("tag = $%d", i))
		args = append(args, nullableTag(patch.Tag))
		i++
	}
	q := fmt.Sprintf(
		`UPDATE documents SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), i, documentColumns,
	)
	args = append(args, id)
	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes a document by id. It does not return an error if the row
// does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ListDistinctTags returns the owner's distinct non-null tags in ascending order.
func (r *DocumentPostgres) ListDistinctTags(ctx context.Context, ownerID string) ([]string, error) {
	const q = `SELECT DISTINCT tag FROM documents WHERE user_id = $1 AND tag IS NOT NULL ORDER BY tag ASC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
