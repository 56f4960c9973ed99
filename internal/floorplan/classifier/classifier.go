// Package classifier decides whether a raster image plausibly is a floor plan
// using cheap structural heuristics: size, aspect ratio, colour variance and
// edge density.
package classifier

import (
	"fmt"
	"image"
	"math"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/floorplan/models"
)

const (
	reasonTooSmall  = "Image too small. Minimum %dx%d pixels required."
	reasonTooLarge  = "Image too large. Maximum %dx%d pixels allowed."
	reasonElongated = "Unusual aspect ratio for floor plan (too elongated)."
	reasonAccepted  = "Image appears to be a valid floor plan"
	reasonRejected  = "Image does not appear to be a floor plan (confidence: %.1f%%). " +
		"Expected architectural drawing with clear lines and minimal colors."
	reasonBasicAccepted = "Basic validation passed (edge detection not available for detailed check)"
	reasonBasicRejected = "Image validation failed (edge detection not available for detailed check)"
)

// ============================================================
// Classifier
// ============================================================

// Classifier is immutable and safe for concurrent use.
type Classifier struct {
	h     Heuristics
	edges EdgeDetector
}

type Option func(*Classifier)

func WithHeuristics(h Heuristics) Option {
	return func(c *Classifier) {
		c.h = h
	}
}

// WithEdgeDetector replaces the Canny detector; nil disables edge detection
// and selects the coarser fallback rule.
func WithEdgeDetector(d EdgeDetector) Option {
	return func(c *Classifier) {
		c.edges = d
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		h:     DefaultHeuristics(),
		edges: NewCanny(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Heuristics returns the constants in effect.
func (c *Classifier) Heuristics() Heuristics {
	return c.h
}

// ClassifyBytes decodes an encoded image and classifies it. Dimensions are
// checked from the header before the pixels are decoded.
func (c *Classifier) ClassifyBytes(data []byte) models.ValidationResult {
	cfg, _, err := DecodeConfig(data)
	if err != nil {
		return decodeFailure(err)
	}
	if res, rejected := c.checkDimensions(cfg.Width, cfg.Height); rejected {
		return res
	}

	img, _, err := Decode(data)
	if err != nil {
		return decodeFailure(err)
	}
	return c.Classify(img)
}

// Classify scores img against the floor plan heuristics. Hard rejects
// short-circuit; the image is never modified.
func (c *Classifier) Classify(img image.Image) models.ValidationResult {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if res, rejected := c.checkDimensions(width, height); rejected {
		return res
	}

	aspect := aspectRatio(width, height)
	if aspect > c.h.MaxAspectRatio {
		return reject(c.h.AspectRejectConfidence, reasonElongated)
	}

	stats := computeStats(img)
	grayscaleLike := stats.colorStd < c.h.ColorStdMax || stats.grayStd > c.h.GrayStdMin
	compact := aspect < c.h.CompactAspectRatio

	fields := log.Fields{
		"width":     width,
		"height":    height,
		"aspect":    round2(aspect),
		"color_std": round2(stats.colorStd),
		"gray_std":  round2(stats.grayStd),
	}

	edgePct, err := c.edgePercent(stats.gray)
	if err != nil {
		fields["error"] = err.Error()
		log.Warn(fields, "[CLASSIFIER] edge detection unavailable, using basic validation")
		if grayscaleLike && compact {
			return models.ValidationResult{
				IsValid:    true,
				Confidence: c.h.FallbackAcceptConfidence,
				Reason:     reasonBasicAccepted,
			}
		}
		return reject(c.h.FallbackRejectConfidence, reasonBasicRejected)
	}

	sufficientEdges := edgePct >= c.h.MinEdgePercent && edgePct <= c.h.MaxEdgePercent

	confidence := 0.0
	if sufficientEdges {
		confidence += c.h.EdgeWeight
	}
	if grayscaleLike {
		confidence += c.h.GrayscaleWeight
	}
	if compact {
		confidence += c.h.AspectWeight
	}
	confidence = clamp01(confidence)

	fields["edge_pct"] = round2(edgePct)
	fields["confidence"] = confidence
	log.Info(fields, "[CLASSIFIER] image validation")

	if confidence >= c.h.AcceptThreshold {
		return models.ValidationResult{IsValid: true, Confidence: confidence, Reason: reasonAccepted}
	}
	return reject(confidence, fmt.Sprintf(reasonRejected, confidence*100))
}

// ============================================================
// Steps
// ============================================================

func (c *Classifier) checkDimensions(width, height int) (models.ValidationResult, bool) {
	if min(width, height) < c.h.MinDimension {
		return reject(0, fmt.Sprintf(reasonTooSmall, c.h.MinDimension, c.h.MinDimension)), true
	}
	if max(width, height) > c.h.MaxDimension {
		return reject(0, fmt.Sprintf(reasonTooLarge, c.h.MaxDimension, c.h.MaxDimension)), true
	}
	return models.ValidationResult{}, false
}

func (c *Classifier) edgePercent(gray *image.Gray) (float64, error) {
	if c.edges == nil {
		return 0, ErrEdgeDetectionUnavailable
	}
	n, err := c.edges.CountEdges(gray)
	if err != nil {
		return 0, err
	}
	total := gray.Bounds().Dx() * gray.Bounds().Dy()
	if total == 0 {
		return 0, nil
	}
	return float64(n) / float64(total) * 100, nil
}

// ============================================================
// Helpers
// ============================================================

func aspectRatio(width, height int) float64 {
	return float64(max(width, height)) / float64(min(width, height))
}

func reject(confidence float64, reason string) models.ValidationResult {
	return models.ValidationResult{IsValid: false, Confidence: confidence, Reason: reason}
}

func decodeFailure(err error) models.ValidationResult {
	log.Error(log.Fields{"error": err.Error()}, "[CLASSIFIER] image validation error")
	return reject(0, "Validation error: "+err.Error())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
