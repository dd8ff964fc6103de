package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

const (
	maxTitleLen = 255
	maxTagLen   = 100

	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateDocumentInput carries a validated-by-the-service upload request.
type CreateDocumentInput struct {
	Title            string
	Tag              string
	Reader           io.Reader
	OriginalFilename string
	Size             int64
	ContentType      string
}

// UpdateDocumentInput is a partial update: nil fields are left untouched.
// A non-nil blank Tag clears the tag.
type UpdateDocumentInput struct {
	Title *string
	Tag   *string
}

// ListQuery holds the client's paging and filter parameters.
type ListQuery struct {
	Page  int
	Limit int
	Tag   string
}

// Pagination is the metadata block returned alongside every page.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// DocumentPage is the service-level DTO for a paginated listing.
type DocumentPage struct {
	Documents  []model.DocumentView `json:"documents"`
	Pagination Pagination           `json:"pagination"`
}

// DocumentService defines the use cases for handling a user's documents.
// Every operation is scoped to the owner resolved from the request's
// credentials; the owner id is never taken from client input.
type DocumentService interface {
	// Create stores the uploaded content, then inserts the metadata row.
	// If the insert fails, the just-stored file is removed (best effort)
	// so no orphan remains.
	Create(ctx context.Context, ownerID string, in CreateDocumentInput) (*model.DocumentView, error)

	// List returns one page of the owner's documents, newest first.
	// Pages past the end return an empty list, not an error.
	List(ctx context.Context, ownerID string, q ListQuery) (*DocumentPage, error)

	// Update changes title and/or tag. The backing file is untouched.
	Update(ctx context.Context, ownerID, id string, in UpdateDocumentInput) (*model.DocumentView, error)

	// Delete removes the backing file (best effort), then the row.
	Delete(ctx context.Context, ownerID, id string) error

	// Download streams the backing file. The caller owns the ReadCloser.
	Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Document, error)

	// ListTags returns the owner's distinct tags, never containing blanks.
	ListTags(ctx context.Context, ownerID string) ([]string, error)
}

type documentService struct {
	store  storage.FileStore
	repo   repository.DocumentRepository
	logger zerolog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.FileStore, repo repository.DocumentRepository, logger zerolog.Logger) DocumentService {
	return &documentService{
		store:  store,
		repo:   repo,
		logger: logger.With().Str("service", "document").Logger(),
	}
}

// validateTitle trims and checks the 1-255 character bound.
// Bounds are counted in characters, not bytes.
func validateTitle(title string) (string, *ValidationError) {
	t := strings.TrimSpace(title)
	if n := utf8.RuneCountInString(t); n < 1 || n > maxTitleLen {
		return "", fieldErr("title", "Title must be between 1 and 255 characters")
	}
	return t, nil
}

// normalizeTag trims the tag and maps blank input to absent (nil).
func normalizeTag(tag string) (*string, *ValidationError) {
	t := strings.TrimSpace(tag)
	if t == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(t) > maxTagLen {
		return nil, fieldErr("tag", "Tag must be max 100 characters")
	}
	return &t, nil
}

func (s *documentService) Create(ctx context.Context, ownerID string, in CreateDocumentInput) (*model.DocumentView, error) {
	title, verr := validateTitle(in.Title)
	if verr != nil {
		return nil, verr
	}
	tag, verr := normalizeTag(in.Tag)
	if verr != nil {
		return nil, verr
	}
	if in.Reader == nil {
		return nil, fieldErr("file", "File is required")
	}

	// Stored name is UUID + original extension; the client name is kept
	// only for display and download.
	ext := filepath.Ext(in.OriginalFilename)
	storedName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", storedName))

	info, err := s.store.Put(ctx, key, in.Reader, storage.PutOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:               uuid.New().String(),
		UserID:           ownerID,
		Title:            title,
		Filename:         storedName,
		OriginalFilename: in.OriginalFilename,
		StoragePath:      info.Key,
		Size:             info.Size,
		ContentType:      in.ContentType,
		Tag:              tag,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Compensate: remove the just-stored file so it doesn't leak.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error().Err(delErr).
				Str("storage_path", key).
				Msg("cleanup of stored file after failed insert also failed")
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	view := stored.View()
	return &view, nil
}

func (s *documentService) List(ctx context.Context, ownerID string, q ListQuery) (*DocumentPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	res, err := s.repo.List(ctx, ownerID, repository.DocumentQuery{
		Tag:    strings.TrimSpace(q.Tag),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]model.DocumentView, 0, len(res.Items))
	for i := range res.Items {
		docs = append(docs, res.Items[i].View())
	}

	return &DocumentPage{
		Documents: docs,
		Pagination: Pagination{
			Total:      res.Total,
			Page:       page,
			Limit:      limit,
			TotalPages: (res.Total + limit - 1) / limit,
		},
	}, nil
}

func (s *documentService) Update(ctx context.Context, ownerID, id string, in UpdateDocumentInput) (*model.DocumentView, error) {
	if _, err := s.findOwned(ctx, ownerID, id); err != nil {
		return nil, err
	}

	patch := repository.DocumentPatch{}
	if in.Title != nil {
		title, verr := validateTitle(*in.Title)
		if verr != nil {
			return nil, verr
		}
		patch.Title = &title
	}
	if in.Tag != nil {
		tag, verr := normalizeTag(*in.Tag)
		if verr != nil {
			return nil, verr
		}
		patch.Tag = tag
		patch.SetTag = true
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		// The row can vanish between the ownership check and the update
		// when racing a concurrent delete.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	view := updated.View()
	return &view, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	// File first, then row: a crash in between leaves a detectable dangling
	// row rather than an unowned file. A failed or missing-file removal
	// never blocks deleting the row — the row is the user-visible truth.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Error().Err(err).
			Str("document_id", doc.ID).
			Str("storage_path", doc.StoragePath).
			Msg("failed to remove backing file, deleting row anyway")
	}

	return s.repo.Delete(ctx, id)
}

func (s *documentService) Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.store.Exists(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("check file: %w", err)
	}
	if !ok {
		return nil, nil, ErrFileMissing
	}

	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) ListTags(ctx context.Context, ownerID string) ([]string, error) {
	tags, err := s.repo.ListDistinctTags(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (s *documentService) findOwned(ctx context.Context, ownerID, id string) (*model.Document, error) {
	doc, err := s.repo.FindOwned(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
