package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "OK", body["status"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestOpenAPIDocument(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	// The spec is embedded, so serving it must not depend on the process
	// working directory.
	t.Chdir(t.TempDir())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, new(serviceMocks.MockAuthService), new(serviceMocks.MockDocumentService), tm, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "openapi: 3.0")
}

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth/register", Register(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "secret1").
			Return(&service.AuthResult{
				Token: "tok",
				User:  model.UserView{ID: "user-1", Username: "alice"},
			}, nil).Once()

		body := strings.NewReader(`{"username":"alice","password":"secret1"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var res authResponse
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "tok", res.Token)
		assert.Equal(t, "alice", res.User.Username)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation errors", func(t *testing.T) {
		body := strings.NewReader(`{"username":"al","password":"123"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res validationPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Len(t, res.Errors, 2)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "alice", "secret1").
			Return(nil, service.ErrUsernameTaken).Once()

		body := strings.NewReader(`{"username":"alice","password":"secret1"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "Username already taken", res.Error)
		mockSvc.AssertExpectations(t)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth/login", Login(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "secret1").
			Return(&service.AuthResult{
				Token: "tok",
				User:  model.UserView{ID: "user-1", Username: "alice"},
			}, nil).Once()

		body := strings.NewReader(`{"username":"alice","password":"secret1"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "alice", "wrong").
			Return(nil, service.ErrInvalidCredentials).Once()

		body := strings.NewReader(`{"username":"alice","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "Invalid credentials", res.Error)
		mockSvc.AssertExpectations(t)
	})
}

// authedApp builds an app with the real auth middleware and a valid token,
// so handler tests exercise the owner-id plumbing end to end.
func authedApp(t *testing.T) (*fiber.App, *auth.TokenManager, string) {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := tm.Issue("user-1")
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	return app, tm, token
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app, tm, token := authedApp(t)
	app.Get("/documents", middleware.RequireAuth(tm), ListDocuments(mockSvc))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		expected := &service.DocumentPage{
			Documents: []model.DocumentView{{ID: uuid.New().String(), Title: "Invoice Q1"}},
			Pagination: service.Pagination{
				Total: 1, Page: 1, Limit: 10, TotalPages: 1,
			},
		}
		mockSvc.On("List", mock.Anything, "user-1", service.ListQuery{Page: 1, Limit: 10}).
			Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?page=1&limit=10", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentPage
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Documents, 1)
		assert.Equal(t, 1, result.Pagination.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, "user-1", mock.Anything).
			Return(nil, errors.New("db fail")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", UploadDocument(mockSvc, 1<<20))

	multipartBody := func(t *testing.T, title, tag, filename, content string) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(t, w.WriteField("title", title))
		if tag != "" {
			require.NoError(t, w.WriteField("tag", tag))
		}
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write([]byte(content))
		require.NoError(t, w.Close())
		return body, w.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		expected := &model.DocumentView{ID: uuid.New().String(), Title: "Invoice Q1", OriginalFilename: "invoice.pdf"}
		mockSvc.On("Create", mock.Anything, "", mock.MatchedBy(func(in service.CreateDocumentInput) bool {
			return in.Title == "Invoice Q1" && in.Tag == "Invoice" && in.OriginalFilename == "invoice.pdf"
		})).Return(expected, nil).Once()

		body, ct := multipartBody(t, "Invoice Q1", "Invoice", "invoice.pdf", "content")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var res documentResponse
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, expected.ID, res.Document.ID)
		assert.Equal(t, "Document created successfully", res.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "File is required", res.Error)
	})

	t.Run("file too large", func(t *testing.T) {
		smallApp := fiber.New()
		smallApp.Post("/documents", UploadDocument(mockSvc, 4))

		body, ct := multipartBody(t, "big", "", "big.bin", "way more than four bytes")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := smallApp.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("validation error from service", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "", mock.Anything).
			Return(nil, &service.ValidationError{Fields: []service.FieldError{
				{Field: "title", Message: "Title must be between 1 and 255 characters"},
			}}).Once()

		body, ct := multipartBody(t, "", "", "a.txt", "x")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res validationPayload
		json.NewDecoder(resp.Body).Decode(&res)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "title", res.Errors[0].Field)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "", mock.Anything).
			Return(nil, errors.New("store failed")).Once()

		body, ct := multipartBody(t, "t", "", "a.txt", "x")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Put("/documents/:id", UpdateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		tag := "Finance"
		expected := &model.DocumentView{ID: id, Title: "Invoice Q1", Tag: &tag}
		mockSvc.On("Update", mock.Anything, "", id, mock.MatchedBy(func(in service.UpdateDocumentInput) bool {
			return in.Title == nil && in.Tag != nil && *in.Tag == "Finance"
		})).Return(expected, nil).Once()

		body := strings.NewReader(`{"tag":"Finance"}`)
		req := httptest.NewRequest(http.MethodPut, "/documents/"+id, body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var res documentResponse
		json.NewDecoder(resp.Body).Decode(&res)
		require.NotNil(t, res.Document.Tag)
		assert.Equal(t, "Finance", *res.Document.Tag)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, "", id, mock.Anything).
			Return(nil, service.ErrNotFound).Once()

		body := strings.NewReader(`{"title":"x"}`)
		req := httptest.NewRequest(http.MethodPut, "/documents/"+id, body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "Document not found", res.Error)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, "", id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res messageResponse
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "Document deleted successfully", res.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, "", id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/download", DownloadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		doc := &model.Document{
			ID:               id,
			OriginalFilename: "invoice.pdf",
			ContentType:      "application/pdf",
			Size:             7,
		}
		mockSvc.On("Download", mock.Anything, "", id).
			Return(io.NopCloser(strings.NewReader("content")), doc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="invoice.pdf"`)

		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "content", string(b))
		mockSvc.AssertExpectations(t)
	})

	t.Run("file missing maps to 404", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Download", mock.Anything, "", id).
			Return(nil, nil, service.ErrFileMissing).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "File not found on server", res.Error)
		mockSvc.AssertExpectations(t)
	})
}

func TestListTags(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/tags/list", ListTags(mockSvc))

	mockSvc.On("ListTags", mock.Anything, "").Return([]string{"Finance", "Invoice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/documents/tags/list", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res tagsResponse
	json.NewDecoder(resp.Body).Decode(&res)
	assert.Equal(t, []string{"Finance", "Invoice"}, res.Tags)
	mockSvc.AssertExpectations(t)
}
