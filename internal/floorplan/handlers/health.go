package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/floorplan/inference"
)

const (
	ServiceName    = "Floor Plan Parser Service"
	ServiceVersion = "1.0.0"
)

// ============================================================
// Health Check Handlers
// ============================================================

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	engine inference.Engine
}

func NewHealthHandler(store Pinger, engine inference.Engine) *HealthHandler {
	return &HealthHandler{store: store, engine: engine}
}

// Index describes the service.
func (h *HealthHandler) Index(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": ServiceName,
		"status":  "running",
		"version": ServiceVersion,
		"endpoints": fiber.Map{
			"health":          "/health",
			"validate":        "/api/validate (POST)",
			"parse_floorplan": "/api/parse-floorplan (POST)",
			"parse_svg":       "/api/parse-svg (POST)",
			"results":         "/api/results",
			"model_status":    "/api/model-status",
		},
	})
}

// Health reports whether the model behind the inference engine is loaded.
// An unreachable engine is reported, not failed on.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status, err := h.engine.Status(ctx)
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"model_loaded": err == nil && status.Loaded,
		"service":      ServiceName,
	})
}

func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// Ready fails while the result store is unreachable.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	if err := h.store.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (h *HealthHandler) Startup(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/", h.Index)
	app.Get("/health", h.Health)
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	app.Get("/health/startup", h.Startup)
}
