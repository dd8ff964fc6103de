package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
)

type documentResponse struct {
	Message  string             `json:"message"`
	Document model.DocumentView `json:"document"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

// HealthCheck handles GET /health with a DB connectivity probe.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "Dependency unavailable")
		}
		return c.JSON(fiber.Map{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ListDocuments handles GET /documents with page/limit/tag query parameters.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid page")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid limit")
		}

		res, err := docSvc.List(c.UserContext(), middleware.UserID(c), service.ListQuery{
			Page:  page,
			Limit: limit,
			Tag:   c.Query("tag"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument handles POST /documents (multipart/form-data: file, title, tag?).
func UploadDocument(docSvc service.DocumentService, maxUploadBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "File is required")
		}
		if maxUploadBytes > 0 && fh.Size > maxUploadBytes {
			return writeError(c, fiber.StatusBadRequest, "File too large")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Create(c.UserContext(), middleware.UserID(c), service.CreateDocumentInput{
			Title:            c.FormValue("title"),
			Tag:              c.FormValue("tag"),
			Reader:           f,
			OriginalFilename: fh.Filename,
			Size:             fh.Size,
			ContentType:      ct,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{
			Message:  "Document created successfully",
			Document: *doc,
		})
	}
}

type updateDocumentRequest struct {
	Title *string `json:"title"`
	Tag   *string `json:"tag"`
}

// UpdateDocument handles PUT /documents/:id with a partial JSON body.
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}

		doc, err := docSvc.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), service.UpdateDocumentInput{
			Title: req.Title,
			Tag:   req.Tag,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(documentResponse{
			Message:  "Document updated successfully",
			Document: *doc,
		})
	}
}

// DeleteDocument handles DELETE /documents/:id.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := docSvc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(messageResponse{Message: "Document deleted successfully"})
	}
}

// DownloadDocument handles GET /documents/:id/download, streaming the file
// with the original client filename in the content disposition.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := docSvc.Download(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		ct := doc.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
		if doc.Size > 0 {
			return c.SendStream(rc, int(doc.Size))
		}
		return c.SendStream(rc)
	}
}

// ListTags handles GET /documents/tags/list.
func ListTags(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := docSvc.ListTags(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tagsResponse{Tags: tags})
	}
}
