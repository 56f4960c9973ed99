package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/common/response"
	"floorplan-service/internal/floorplan/repository"
)

type listQuery struct {
	Limit int `validate:"min=1,max=100"`
}

// ============================================================
// Stored results
// ============================================================

func (h *FloorPlanHandler) ListResults(c fiber.Ctx) error {
	q := listQuery{Limit: repository.DefaultListLimit}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return response.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		q.Limit = n
	}
	if err := h.validate.Struct(q); err != nil {
		return response.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	list, err := h.store.List(c.Context(), q.Limit)
	if err != nil {
		return response.Wrap(fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"results": list, "count": len(list)})
}

func (h *FloorPlanHandler) GetResult(c fiber.Ctx) error {
	rec, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// GetResultSVG draws the stored plan back into the vector schema.
func (h *FloorPlanHandler) GetResultSVG(c fiber.Ctx) error {
	rec, err := h.lookup(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(h.renderer.Render(rec.Plan))
}

// GetResultDocument returns the document exactly as the inference engine
// produced it.
func (h *FloorPlanHandler) GetResultDocument(c fiber.Ctx) error {
	rec, err := h.lookup(c)
	if err != nil {
		return err
	}
	if rec.Document == "" {
		return response.NewError(fiber.StatusNotFound, "No inference document stored")
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(rec.Document)
}

// DeleteResult drops the stored record and then the kept upload.
func (h *FloorPlanHandler) DeleteResult(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.Delete(c.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NewError(fiber.StatusNotFound, "Floor plan not found")
		}
		return response.Wrap(fiber.StatusInternalServerError, err)
	}

	fields := requestFields(c)
	fields["id"] = id
	if err := h.files.Remove(id); err != nil {
		fields["error"] = err.Error()
		log.Warn(fields, "[FLOORPLAN] failed to remove upload")
	} else {
		log.Info(fields, "[FLOORPLAN] deleted floor plan")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FloorPlanHandler) lookup(c fiber.Ctx) (*repository.Record, error) {
	rec, err := h.store.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, response.NewError(fiber.StatusNotFound, "Floor plan not found")
		}
		return nil, response.Wrap(fiber.StatusInternalServerError, err)
	}
	return rec, nil
}
