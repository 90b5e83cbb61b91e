package http

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
)

// docsPage loads Swagger UI from the CDN and points it at the served document.
const docsPage = `<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>Absensi Kiosk API</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.ui = SwaggerUIBundle({ url: %q, dom_id: "#docs", docExpansion: "list", tryItOutEnabled: false });
</script>
</body>
</html>`

// OpenAPIPath is where the kiosk looks for its OpenAPI document,
// relative to the working directory.
var OpenAPIPath = "api/openapi.yaml"

// SetupDocs serves Swagger UI at /docs and the OpenAPI document at
// /docs/openapi.yaml. The document is read on each request so an edited
// file shows up without a restart.
func SetupDocs(app *fiber.App) {
	page := fmt.Sprintf(docsPage, "/docs/openapi.yaml")

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(page)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		data, err := os.ReadFile(OpenAPIPath)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("openapi document unavailable", "path", OpenAPIPath, "error", err)
			return newError(c, fiber.StatusNotFound, "not_found", "openapi.yaml not found")
		}
		c.Type("yaml")
		return c.Send(data)
	})
}
