// Package assembler runs the analysis pipeline: plausibility gate,
// inference, document parsing.
package assembler

import (
	"context"
	"fmt"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/floorplan/classifier"
	"floorplan-service/internal/floorplan/inference"
	"floorplan-service/internal/floorplan/models"
	"floorplan-service/internal/floorplan/parser"
)

// Analysis is the outcome of one Analyze call. Plan is nil when the image
// was rejected by the classifier.
type Analysis struct {
	Validation models.ValidationResult
	Document   []byte
	Plan       *models.FloorPlan
}

func (a *Analysis) Accepted() bool {
	return a.Plan != nil
}

// ============================================================
// Assembler
// ============================================================

type Assembler struct {
	classifier *classifier.Classifier
	parse      func([]byte) models.FloorPlan
	engine     inference.Engine
}

func New(c *classifier.Classifier, p *parser.Parser, engine inference.Engine) *Assembler {
	if c == nil {
		c = classifier.New()
	}
	if p == nil {
		p = parser.New()
	}
	if engine == nil {
		engine = inference.Disabled{}
	}
	return &Assembler{classifier: c, parse: p.ParseBytes, engine: engine}
}

func (a *Assembler) Classifier() *classifier.Classifier {
	return a.classifier
}

func (a *Assembler) Engine() inference.Engine {
	return a.engine
}

// Assemble turns a vector document into a floor plan. It never fails: broken
// documents and unexpected panics both yield an empty plan.
func (a *Assembler) Assemble(raw []byte) (plan models.FloorPlan) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.Fields{"panic": fmt.Sprint(r)}, "[ASSEMBLER] recovered while assembling floor plan")
			plan = models.EmptyFloorPlan()
		}
	}()
	return a.parse(raw)
}

// Analyze classifies the image and, when accepted, sends it through the
// inference engine and assembles the result. A rejected image is not an
// error.
func (a *Assembler) Analyze(ctx context.Context, image []byte, filename string) (*Analysis, error) {
	validation := a.classifier.ClassifyBytes(image)
	result := &Analysis{Validation: validation}

	if !validation.IsValid {
		log.Info(log.Fields{
			"filename":   filename,
			"confidence": validation.Confidence,
			"reason":     validation.Reason,
		}, "[ASSEMBLER] image rejected")
		return result, nil
	}

	doc, err := a.engine.Process(ctx, image, filename)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	plan := a.Assemble(doc)
	result.Document = doc
	result.Plan = &plan

	log.Info(log.Fields{
		"filename": filename,
		"walls":    len(plan.Walls),
		"doors":    len(plan.Doors),
		"windows":  len(plan.Windows),
		"rooms":    len(plan.Rooms),
	}, "[ASSEMBLER] floor plan assembled")

	return result, nil
}
