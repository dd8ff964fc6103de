package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docvault/docs"
	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse input, call the service, shape the response.
func RegisterRoutes(app *fiber.App, db *sql.DB, authSvc service.AuthService, docSvc service.DocumentService, tokens *auth.TokenManager, maxUploadBytes int64) {
	// Serve the OpenAPI spec and a static viewer page
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.Send(docs.OpenAPI)
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", Register(authSvc))
	authGroup.Post("/login", Login(authSvc))

	docs := app.Group("/documents", middleware.RequireAuth(tokens))
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocument(docSvc, maxUploadBytes))
	// Registered before /:id so "tags" is never parsed as a document id.
	docs.Get("/tags/list", ListTags(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
}
