package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"floorplan-service/internal/floorplan/document"
	"floorplan-service/internal/floorplan/geometry"
	"floorplan-service/internal/floorplan/models"
)

// ============================================================
// Element variants
// ============================================================

// Element is one classified element of a vector document: WallElement,
// DoorElement, WindowElement, RoomLabelElement or RoomBoundaryElement.
type Element interface {
	element()
}

type WallElement struct {
	Walls []models.Wall
}

type DoorElement struct {
	Door models.Door
}

type WindowElement struct {
	Window models.Window
}

type RoomLabelElement struct {
	Label string
	At    models.Point
}

// RoomBoundaryElement is a candidate room outline. Class keeps the room_<suffix>
// class for diagnostics only; it is never used to decide the room type.
type RoomBoundaryElement struct {
	Class  string
	Points []models.Point
	Bounds models.BoundingBox
}

func (WallElement) element()         {}
func (DoorElement) element()         {}
func (WindowElement) element()       {}
func (RoomLabelElement) element()    {}
func (RoomBoundaryElement) element() {}

// ============================================================
// Errors
// ============================================================

// ErrMalformedDocument marks a document that could not be read as a tree at all.
var ErrMalformedDocument = errors.New("malformed vector document")

// ElementError reports one element that was skipped during extraction.
type ElementError struct {
	Index int // position in document order
	Tag   string
	Class string
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element #%d <%s class=%q>: %v", e.Index, e.Tag, e.Class, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

// ============================================================
// Classification
// ============================================================

const (
	classWall      = "wall"
	classDoor      = "door"
	classWindow    = "window"
	classRoomLabel = "room_label"
	roomPrefix     = "room_"
)

var rotateRe = regexp.MustCompile(`rotate\(\s*([-+]?(?:\d+\.?\d*|\.\d+))`)

// classOf returns the first recognised class token of the node.
func classOf(n *document.Node) string {
	raw, _ := n.Attr("class")
	for _, token := range strings.Fields(raw) {
		switch {
		case token == classWall, token == classDoor, token == classWindow, token == classRoomLabel:
			return token
		case strings.HasPrefix(token, roomPrefix):
			return token
		}
	}
	return ""
}

// Classify maps one node to its element variant. Nodes without a recognised
// class, and room_* classes on anything but a polygon, yield nil.
func Classify(n *document.Node) (Element, error) {
	return classify(n, false)
}

// classify is Classify with rect and path room outlines optionally accepted.
func classify(n *document.Node, shapeOutlines bool) (Element, error) {
	class := classOf(n)

	switch {
	case class == classWall:
		walls, err := wallsFrom(n)
		if err != nil {
			return nil, err
		}
		return WallElement{Walls: walls}, nil

	case class == classDoor:
		door, err := doorFrom(n)
		if err != nil {
			return nil, err
		}
		return DoorElement{Door: door}, nil

	case class == classWindow:
		window, err := windowFrom(n)
		if err != nil {
			return nil, err
		}
		return WindowElement{Window: window}, nil

	case class == classRoomLabel:
		return labelFrom(n)

	case strings.HasPrefix(class, roomPrefix):
		if n.Tag != "polygon" && !shapeOutlines {
			return nil, nil
		}
		points, ok, err := outlineOf(n)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("room boundary has no vertices")
		}
		return RoomBoundaryElement{
			Class:  class,
			Points: points,
			Bounds: geometry.Bounds(points),
		}, nil
	}

	return nil, nil
}

// ============================================================
// Walls
// ============================================================

func wallsFrom(n *document.Node) ([]models.Wall, error) {
	switch n.Tag {
	case "polygon":
		points, err := geometry.ParsePoints(attrOr(n, "points", ""))
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("wall polygon has no vertices")
		}
		return PolygonToWalls(points), nil

	case "line":
		return lineWall(n)

	case "rect":
		return rectWall(n)

	case "path":
		subpaths, err := geometry.ParsePath(attrOr(n, "d", ""))
		if err != nil {
			return nil, err
		}
		var walls []models.Wall
		for _, points := range subpaths {
			if open := geometry.OpenRing(points); len(open) < len(points) {
				walls = append(walls, PolygonToWalls(open)...)
			} else {
				walls = append(walls, polylineWalls(points)...)
			}
		}
		return walls, nil
	}

	return nil, fmt.Errorf("unsupported wall shape %q", n.Tag)
}

// PolygonToWalls turns N vertices into N walls joining consecutive vertices,
// the last one wrapping back to the first. Polygons carry no stroke width, so
// every wall gets the default thickness.
func PolygonToWalls(points []models.Point) []models.Wall {
	walls := make([]models.Wall, 0, len(points))
	for i := range points {
		start := points[i]
		end := points[(i+1)%len(points)]
		walls = append(walls, newWall(start, end, models.DefaultWallThickness))
	}
	return walls
}

func polylineWalls(points []models.Point) []models.Wall {
	if len(points) == 1 {
		return PolygonToWalls(points)
	}
	walls := make([]models.Wall, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		walls = append(walls, newWall(points[i], points[i+1], models.DefaultWallThickness))
	}
	return walls
}

func lineWall(n *document.Node) ([]models.Wall, error) {
	var coords [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		v, err := floatAttr(n, name, 0)
		if err != nil {
			return nil, err
		}
		coords[i] = v
	}

	thickness := positiveAttr(n, "stroke-width", models.DefaultWallThickness)
	return []models.Wall{{
		StartX:    coords[0],
		StartY:    coords[1],
		EndX:      coords[2],
		EndY:      coords[3],
		Thickness: thickness,
	}}, nil
}

// rectWall collapses a rectangle onto its centre line along the long side;
// the short side becomes the thickness.
func rectWall(n *document.Node) ([]models.Wall, error) {
	rect, err := rectOf(n)
	if err != nil {
		return nil, err
	}

	thickness := math.Min(rect.Width, rect.Height)
	if thickness <= 0 {
		thickness = models.DefaultWallThickness
	}

	var p1, p2 models.Point
	if rect.Width >= rect.Height {
		p1 = models.Point{X: rect.X, Y: rect.Y + rect.Height/2}
		p2 = models.Point{X: rect.X + rect.Width, Y: rect.Y + rect.Height/2}
	} else {
		p1 = models.Point{X: rect.X + rect.Width/2, Y: rect.Y}
		p2 = models.Point{X: rect.X + rect.Width/2, Y: rect.Y + rect.Height}
	}

	return []models.Wall{newWall(p1, p2, thickness)}, nil
}

func newWall(start, end models.Point, thickness float64) models.Wall {
	return models.Wall{
		StartX:    start.X,
		StartY:    start.Y,
		EndX:      end.X,
		EndY:      end.Y,
		Thickness: thickness,
	}
}

// ============================================================
// Openings
// ============================================================

func doorFrom(n *document.Node) (models.Door, error) {
	x, err := floatAttr(n, "x", 0)
	if err != nil {
		return models.Door{}, err
	}
	y, err := floatAttr(n, "y", 0)
	if err != nil {
		return models.Door{}, err
	}

	return models.Door{
		X:        x,
		Y:        y,
		Width:    positiveAttr(n, "width", models.DefaultDoorWidth),
		Rotation: ParseRotation(attrOr(n, "transform", "")),
	}, nil
}

func windowFrom(n *document.Node) (models.Window, error) {
	x, err := floatAttr(n, "x", 0)
	if err != nil {
		return models.Window{}, err
	}
	y, err := floatAttr(n, "y", 0)
	if err != nil {
		return models.Window{}, err
	}

	return models.Window{
		X:     x,
		Y:     y,
		Width: positiveAttr(n, "width", models.DefaultWindowWidth),
	}, nil
}

// ParseRotation extracts the angle of a rotate(<deg>) transform, rounded to
// whole degrees. Anything else yields 0.
func ParseRotation(transform string) int {
	m := rotateRe.FindStringSubmatch(transform)
	if m == nil {
		return 0
	}
	deg, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsInf(deg, 0) {
		return 0
	}
	return int(math.Round(deg))
}

// ============================================================
// Rooms
// ============================================================

func labelFrom(n *document.Node) (Element, error) {
	x, err := floatAttr(n, "x", 0)
	if err != nil {
		return nil, err
	}
	y, err := floatAttr(n, "y", 0)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(n.InnerText())
	if label == "" {
		label = "UNKNOWN"
	}

	return RoomLabelElement{Label: label, At: models.Point{X: x, Y: y}}, nil
}

// outlineOf returns the vertices of a shape that can outline a room. A path
// is outlined by its first subpath. ok is false for shapes that cannot
// (text, line, ...).
func outlineOf(n *document.Node) ([]models.Point, bool, error) {
	switch n.Tag {
	case "polygon":
		points, err := geometry.ParsePoints(attrOr(n, "points", ""))
		return points, true, err
	case "path":
		subpaths, err := geometry.ParsePath(attrOr(n, "d", ""))
		if err != nil {
			return nil, true, err
		}
		return geometry.OpenRing(subpaths[0]), true, nil
	case "rect":
		r, err := rectOf(n)
		if err != nil {
			return nil, true, err
		}
		return []models.Point{
			{X: r.X, Y: r.Y},
			{X: r.X + r.Width, Y: r.Y},
			{X: r.X + r.Width, Y: r.Y + r.Height},
			{X: r.X, Y: r.Y + r.Height},
		}, true, nil
	}
	return nil, false, nil
}

// ============================================================
// Attribute helpers
// ============================================================

func attrOr(n *document.Node, name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// floatAttr reads a numeric attribute; absent means def, present but
// unparsable is an error.
func floatAttr(n *document.Node, name string, def float64) (float64, error) {
	raw, ok := n.Attr(name)
	if !ok {
		return def, nil
	}
	v, err := parseLength(raw)
	if err != nil {
		return 0, fmt.Errorf("attribute %s=%q: %w", name, raw, err)
	}
	return v, nil
}

// positiveAttr reads a size attribute that must be > 0, substituting def for
// absent, unparsable or non-positive values.
func positiveAttr(n *document.Node, name string, def float64) float64 {
	v, err := floatAttr(n, name, def)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// parseLength accepts plain numbers and the "px" unit.
func parseLength(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return v, nil
}

func rectOf(n *document.Node) (models.BoundingBox, error) {
	var vals [4]float64
	for i, name := range []string{"x", "y", "width", "height"} {
		v, err := floatAttr(n, name, 0)
		if err != nil {
			return models.BoundingBox{}, err
		}
		vals[i] = v
	}
	if vals[2] < 0 || vals[3] < 0 {
		return models.BoundingBox{}, fmt.Errorf("negative rect size")
	}
	return models.BoundingBox{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
