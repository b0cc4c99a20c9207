package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"demandeapi/internal/http/middleware"
	"demandeapi/internal/service"
	"demandeapi/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers free of business logic; they translate between HTTP and the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.RequestService, store storage.Storage) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
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

	// Health endpoints
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Citizen-facing submission endpoint
	app.Post("/etat-civil", SubmitRequest(svc))

	// Staff review endpoints. AllowAll documents the deliberate absence of
	// authorization here.
	staff := app.Group("/api/demandes", middleware.AllowAll())

	// Fixed paths must register before the parameterized :id route.
	staff.Get("/", ListRequests(svc))
	staff.Get("/stats", GetRequestStats(svc))
	staff.Get("/export", ExportRequests(svc))
	staff.Get("/:id", GetRequest(svc))
	staff.Get("/:id/attachment", DownloadAttachment(svc, store))
	staff.Put("/:id/status", UpdateRequestStatus(svc))
}
