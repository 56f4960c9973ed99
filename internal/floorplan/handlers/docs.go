package handlers

import (
	"embed"

	"github.com/gofiber/fiber/v3"
)

//go:embed openapi.yaml swagger.html
var docsFS embed.FS

// docPages maps each docs route to its embedded file and content type.
var docPages = []struct {
	route, file, mime string
}{
	{"/docs", "swagger.html", "text/html; charset=utf-8"},
	{"/docs/openapi.yaml", "openapi.yaml", "application/yaml"},
}

// RegisterDocs serves the API reference: a Swagger UI page and the OpenAPI
// document it loads.
func RegisterDocs(app *fiber.App) {
	for _, page := range docPages {
		body, err := docsFS.ReadFile(page.file)
		if err != nil {
			panic(err)
		}
		mime := page.mime
		app.Get(page.route, func(c fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, mime)
			return c.Send(body)
		})
	}
}
