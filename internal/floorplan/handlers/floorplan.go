package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/common/response"
	"floorplan-service/internal/floorplan/inference"
	"floorplan-service/internal/floorplan/models"
)

type parseResponse struct {
	Success              bool             `json:"success"`
	ID                   string           `json:"id"`
	Filename             string           `json:"filename"`
	ValidationConfidence float64          `json:"validation_confidence"`
	Data                 models.FloorPlan `json:"data"`
}

type rejectionResponse struct {
	Error      string  `json:"error"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// ============================================================
// Validation & parsing
// ============================================================

// Validate runs only the plausibility check. The verdict is the payload, so
// a rejected image is still a 200.
func (h *FloorPlanHandler) Validate(c fiber.Ctx) error {
	up, err := readImageUpload(c)
	if err != nil {
		return err
	}

	result := h.assembler.Classifier().ClassifyBytes(up.data)
	return c.JSON(result)
}

// ParseFloorplan validates the image, runs inference, assembles the plan
// and stores the result.
func (h *FloorPlanHandler) ParseFloorplan(c fiber.Ctx) error {
	up, err := readImageUpload(c)
	if err != nil {
		return err
	}

	fields := requestFields(c)
	fields["filename"] = up.filename
	fields["size"] = len(up.data)
	log.Info(fields, "[FLOORPLAN] received floor plan")

	analysis, err := h.assembler.Analyze(c.Context(), up.data, up.filename)
	if err != nil {
		if errors.Is(err, inference.ErrNotConfigured) {
			return response.NewError(fiber.StatusServiceUnavailable, "Inference engine not configured")
		}
		return response.Wrap(fiber.StatusBadGateway, fmt.Errorf("processing failed: %w", err))
	}

	if !analysis.Accepted() {
		return c.Status(fiber.StatusBadRequest).JSON(rejectionResponse{
			Error:      "Invalid floor plan image",
			Reason:     analysis.Validation.Reason,
			Confidence: analysis.Validation.Confidence,
		})
	}

	plan := *analysis.Plan
	rec, err := h.store.Save(c.Context(), up.filename, analysis.Validation.Confidence, plan, analysis.Document)
	if err != nil {
		return response.Wrap(fiber.StatusInternalServerError, fmt.Errorf("save result: %w", err))
	}

	if _, err := h.files.SaveUpload(rec.ID, up.filename, up.data); err != nil {
		fields["error"] = err.Error()
		log.Warn(fields, "[FLOORPLAN] failed to keep upload")
	}

	return c.JSON(parseResponse{
		Success:              true,
		ID:                   rec.ID,
		Filename:             up.filename,
		ValidationConfidence: analysis.Validation.Confidence,
		Data:                 plan,
	})
}

// ParseSVG assembles a plan from a vector document sent directly, either as
// the raw body or as a multipart "file". Broken documents yield an empty plan.
func (h *FloorPlanHandler) ParseSVG(c fiber.Ctx) error {
	var doc []byte

	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		file, err := c.FormFile("file")
		if err != nil {
			return response.NewError(fiber.StatusBadRequest, "No file provided")
		}
		f, err := file.Open()
		if err != nil {
			return response.Wrap(fiber.StatusInternalServerError, fmt.Errorf("open upload: %w", err))
		}
		defer f.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(f); err != nil {
			return response.Wrap(fiber.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		}
		doc = buf.Bytes()
	} else {
		doc = append([]byte(nil), c.Body()...)
	}

	if len(bytes.TrimSpace(doc)) == 0 {
		return response.NewError(fiber.StatusBadRequest, "No document provided")
	}

	return c.JSON(h.assembler.Assemble(doc))
}

// ModelStatus reports the inference engine state.
func (h *FloorPlanHandler) ModelStatus(c fiber.Ctx) error {
	status, err := h.assembler.Engine().Status(c.Context())
	if err != nil {
		fields := requestFields(c)
		fields["error"] = err.Error()
		log.Warn(fields, "[FLOORPLAN] model status unavailable")
		return response.NewError(fiber.StatusBadGateway, "Inference engine unreachable")
	}
	return c.JSON(status)
}
