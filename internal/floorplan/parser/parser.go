// Package parser turns a vector segmentation document into a FloorPlan.
package parser

import (
	"fmt"
	"math"
	"strings"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/floorplan/document"
	"floorplan-service/internal/floorplan/geometry"
	"floorplan-service/internal/floorplan/models"
	"floorplan-service/internal/floorplan/roomtype"
)

// DefaultRoomSize is the side of the box substituted when a label matches no boundary.
const DefaultRoomSize = 200.0

// ============================================================
// Match policy
// ============================================================

// MatchPolicy decides which boundary a room label belongs to.
type MatchPolicy string

const (
	// FirstContaining picks the first boundary, in document order, whose
	// bounding box contains the label point.
	FirstContaining MatchPolicy = "first"
	// NearestCentroid picks, among the containing boundaries, the one whose
	// polygon centroid is closest to the label point.
	NearestCentroid MatchPolicy = "nearest_centroid"
)

// ParseMatchPolicy maps a config string to a policy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FirstContaining:
		return FirstContaining, nil
	case NearestCentroid:
		return NearestCentroid, nil
	}
	return "", fmt.Errorf("unknown room match policy %q", s)
}

// ============================================================
// Parser
// ============================================================

// Parser is stateless and safe for concurrent use.
type Parser struct {
	policy        MatchPolicy
	shapeOutlines bool
}

type Option func(*Parser)

func WithMatchPolicy(p MatchPolicy) Option {
	return func(parser *Parser) {
		parser.policy = p
	}
}

// WithShapeOutlines also accepts room_* rect and path elements as room
// boundaries. By default only polygons outline rooms.
func WithShapeOutlines(enabled bool) Option {
	return func(parser *Parser) {
		parser.shapeOutlines = enabled
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{policy: FirstContaining}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseBytes parses a raw document. It never fails: malformed input is logged
// and yields an empty plan.
func (p *Parser) ParseBytes(data []byte) models.FloorPlan {
	plan, err := p.ParseDocument(data)
	if err != nil {
		log.Error(log.Fields{"error": err.Error(), "bytes": len(data)}, "[PARSER] document parsing failed")
		return models.EmptyFloorPlan()
	}
	return plan
}

// ParseDocument is ParseBytes for callers that want to see the failure.
// The returned error wraps ErrMalformedDocument.
func (p *Parser) ParseDocument(data []byte) (models.FloorPlan, error) {
	root, err := document.Parse(data)
	if err != nil {
		return models.EmptyFloorPlan(), fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return p.Parse(root), nil
}

// Parse extracts a plan from an already parsed tree. Elements that fail to
// extract are logged and skipped.
func (p *Parser) Parse(root *document.Node) models.FloorPlan {
	plan := models.EmptyFloorPlan()
	if root == nil {
		return plan
	}

	elements, errs := extract(root, p.shapeOutlines)
	for _, err := range errs {
		log.Warn(log.Fields{"error": err.Error()}, "[PARSER] element skipped")
	}

	var labels []RoomLabelElement
	var boundaries []RoomBoundaryElement

	for _, elem := range elements {
		switch e := elem.(type) {
		case WallElement:
			plan.Walls = append(plan.Walls, e.Walls...)
		case DoorElement:
			plan.Doors = append(plan.Doors, e.Door)
		case WindowElement:
			plan.Windows = append(plan.Windows, e.Window)
		case RoomLabelElement:
			labels = append(labels, e)
		case RoomBoundaryElement:
			boundaries = append(boundaries, e)
		}
	}

	for _, label := range labels {
		plan.Rooms = append(plan.Rooms, models.Room{
			Type:   roomtype.Normalize(label.Label),
			Bounds: p.matchBounds(label.At, boundaries),
		})
	}

	log.Info(log.Fields{
		"walls":      len(plan.Walls),
		"doors":      len(plan.Doors),
		"windows":    len(plan.Windows),
		"rooms":      len(plan.Rooms),
		"boundaries": len(boundaries),
		"skipped":    len(errs),
	}, "[PARSER] parsed document")

	return plan
}

// Extract classifies every element of the tree in document order.
func Extract(root *document.Node) ([]Element, []error) {
	return extract(root, false)
}

func extract(root *document.Node, shapeOutlines bool) ([]Element, []error) {
	var elements []Element
	var errs []error

	index := 0
	root.Walk(func(n *document.Node) {
		defer func() { index++ }()

		elem, err := classify(n, shapeOutlines)
		if err != nil {
			class, _ := n.Attr("class")
			errs = append(errs, &ElementError{Index: index, Tag: n.Tag, Class: class, Err: err})
			return
		}
		if elem != nil {
			elements = append(elements, elem)
		}
	})

	return elements, errs
}

// ============================================================
// Label to boundary matching
// ============================================================

// matchBounds is a linear scan; documents hold tens of elements.
func (p *Parser) matchBounds(at models.Point, boundaries []RoomBoundaryElement) models.BoundingBox {
	switch p.policy {
	case NearestCentroid:
		best := -1
		bestDist := math.MaxFloat64
		for i, b := range boundaries {
			if !geometry.Contains(b.Bounds, at) {
				continue
			}
			if d := geometry.Distance(geometry.Centroid(b.Points), at); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			return boundaries[best].Bounds
		}
	default:
		for _, b := range boundaries {
			if geometry.Contains(b.Bounds, at) {
				return b.Bounds
			}
		}
	}

	return geometry.BoxAround(at, DefaultRoomSize)
}
