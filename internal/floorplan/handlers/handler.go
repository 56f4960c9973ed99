package handlers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/common/middleware"
	"floorplan-service/internal/common/response"
	"floorplan-service/internal/floorplan/assembler"
	"floorplan-service/internal/floorplan/models"
	"floorplan-service/internal/floorplan/render"
	"floorplan-service/internal/floorplan/repository"
	"floorplan-service/internal/floorplan/storage"
)

// AllowedExtensions are the upload formats the classifier can decode.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "bmp", "tif", "tiff", "webp"}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResultStore persists analysed floor plans.
type ResultStore interface {
	Save(ctx context.Context, filename string, confidence float64, plan models.FloorPlan, document []byte) (*repository.Record, error)
	GetByID(ctx context.Context, id string) (*repository.Record, error)
	List(ctx context.Context, limit int) ([]repository.Summary, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ============================================================
// Floor Plan Handler
// ============================================================

type FloorPlanHandler struct {
	assembler *assembler.Assembler
	store     ResultStore
	files     *storage.FileStorage
	renderer  *render.Renderer
	validate  *validator.Validate
}

func NewFloorPlanHandler(a *assembler.Assembler, store ResultStore, files *storage.FileStorage) *FloorPlanHandler {
	return &FloorPlanHandler{
		assembler: a,
		store:     store,
		files:     files,
		renderer:  render.NewRenderer(),
		validate:  validator.New(),
	}
}

// Register mounts the API routes on r.
func (h *FloorPlanHandler) Register(r fiber.Router) {
	r.Get("/model-status", h.ModelStatus)
	r.Post("/validate", h.Validate)
	r.Post("/parse-floorplan", h.ParseFloorplan)
	r.Post("/parse-svg", h.ParseSVG)
	r.Get("/results", h.ListResults)
	r.Get("/results/:id", h.GetResult)
	r.Get("/results/:id/svg", h.GetResultSVG)
	r.Get("/results/:id/document", h.GetResultDocument)
	r.Delete("/results/:id", h.DeleteResult)
}

// ============================================================
// Upload helpers
// ============================================================

type upload struct {
	filename string
	data     []byte
}

// readImageUpload reads the multipart "file" field and checks its extension.
func readImageUpload(c fiber.Ctx) (*upload, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, response.NewError(fiber.StatusBadRequest, "No file provided")
	}
	if strings.TrimSpace(file.Filename) == "" {
		return nil, response.NewError(fiber.StatusBadRequest, "No file selected")
	}
	if !allowedFile(file.Filename) {
		return nil, response.NewError(fiber.StatusBadRequest,
			"Invalid file type. Allowed: "+strings.Join(AllowedExtensions, ", "))
	}

	f, err := file.Open()
	if err != nil {
		return nil, response.Wrap(fiber.StatusInternalServerError, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, response.Wrap(fiber.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
	}

	return &upload{filename: secureFilename(file.Filename), data: data}, nil
}

func allowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// secureFilename drops any directory part and replaces characters outside
// [A-Za-z0-9._-] with underscores.
func secureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "upload"
	}
	return name
}

func requestFields(c fiber.Ctx) log.Fields {
	return log.Fields{
		"request_id": middleware.GetRequestID(c),
		"path":       c.Path(),
	}
}
