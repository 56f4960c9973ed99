// Package geometry holds the point, bounding-box and polygon helpers shared by
// the vector document parser.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"floorplan-service/internal/floorplan/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ============================================================
// Points
// ============================================================

// ParsePoints parses an SVG points attribute: whitespace separated "x,y" pairs.
func ParsePoints(s string) ([]models.Point, error) {
	fields := strings.Fields(s)
	points := make([]models.Point, 0, len(fields))

	for _, pair := range fields {
		coords := strings.Split(pair, ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("point %q: expected x,y pair", pair)
		}
		x, err := strconv.ParseFloat(coords[0], 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(coords[1], 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", pair, err)
		}
		if math.IsNaN(x+y) || math.IsInf(x+y, 0) {
			return nil, fmt.Errorf("point %q: non-finite coordinate", pair)
		}
		points = append(points, models.Point{X: x, Y: y})
	}

	return points, nil
}

// OpenRing drops a trailing vertex that repeats the first one.
func OpenRing(points []models.Point) []models.Point {
	if len(points) > 1 {
		first := points[0]
		last := points[len(points)-1]
		if first.X == last.X && first.Y == last.Y {
			return points[:len(points)-1]
		}
	}
	return points
}

func Distance(p1, p2 models.Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

// ============================================================
// Bounding boxes
// ============================================================

// Bounds returns the axis-aligned bounding box of the points.
// An empty slice yields the zero box.
func Bounds(points []models.Point) models.BoundingBox {
	if len(points) == 0 {
		return models.BoundingBox{}
	}
	b := toMultiPoint(points).Bound()
	return models.BoundingBox{
		X:      b.Min.X(),
		Y:      b.Min.Y(),
		Width:  b.Max.X() - b.Min.X(),
		Height: b.Max.Y() - b.Min.Y(),
	}
}

// Contains reports whether p lies inside box; edges count as inside.
func Contains(box models.BoundingBox, p models.Point) bool {
	return toBound(box).Contains(orb.Point{p.X, p.Y})
}

// BoxAround returns a size x size box centred on p.
func BoxAround(p models.Point, size float64) models.BoundingBox {
	return models.BoundingBox{
		X:      p.X - size/2,
		Y:      p.Y - size/2,
		Width:  size,
		Height: size,
	}
}

// Center returns the centre of the box.
func Center(box models.BoundingBox) models.Point {
	c := toBound(box).Center()
	return models.Point{X: c.X(), Y: c.Y()}
}

// ============================================================
// Polygons
// ============================================================

// Centroid returns the area centroid of the closed polygon described by points.
// Degenerate polygons fall back to the vertex mean.
func Centroid(points []models.Point) models.Point {
	if len(points) == 0 {
		return models.Point{}
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	c, area := planar.CentroidArea(orb.Polygon{ring})
	if area == 0 || math.IsNaN(c.X()) || math.IsNaN(c.Y()) {
		var sumX, sumY float64
		for _, p := range points {
			sumX += p.X
			sumY += p.Y
		}
		return models.Point{X: sumX / float64(len(points)), Y: sumY / float64(len(points))}
	}
	return models.Point{X: c.X(), Y: c.Y()}
}

// ============================================================
// Helpers
// ============================================================

func toMultiPoint(points []models.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, orb.Point{p.X, p.Y})
	}
	return mp
}

func toBound(box models.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{box.X, box.Y},
		Max: orb.Point{box.X + box.Width, box.Y + box.Height},
	}
}
