// Package render draws a floor plan back into the classed SVG schema the
// parser consumes.
package render

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"floorplan-service/internal/floorplan/geometry"
	"floorplan-service/internal/floorplan/models"
	"floorplan-service/internal/floorplan/roomtype"
)

const (
	defaultCanvas = 512.0
	canvasMargin  = 20.0
	openingDepth  = 10.0
	labelFontSize = 14
	wallStroke    = "#000"
	doorStroke    = "#d62728"
	windowStroke  = "#1f77b4"
	roomFill      = "none"
	roomStroke    = "#888"
)

// ============================================================
// Renderer
// ============================================================

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render builds an SVG document from plan. Parsing the output yields the
// same plan as long as no room box contains another room's centre.
func (r *Renderer) Render(plan models.FloorPlan) string {
	width, height := r.canvasSize(plan)

	var elements []string
	elements = append(elements, r.renderWalls(plan.Walls)...)
	elements = append(elements, r.renderDoors(plan.Doors)...)
	elements = append(elements, r.renderWindows(plan.Windows)...)
	elements = append(elements, r.renderRooms(plan.Rooms)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String()
}

// ============================================================
// Sizing
// ============================================================

func (r *Renderer) canvasSize(plan models.FloorPlan) (float64, float64) {
	var points []models.Point
	for _, w := range plan.Walls {
		points = append(points, models.Point{X: w.StartX, Y: w.StartY}, models.Point{X: w.EndX, Y: w.EndY})
	}
	for _, d := range plan.Doors {
		points = append(points, models.Point{X: d.X + d.Width, Y: d.Y + openingDepth})
	}
	for _, w := range plan.Windows {
		points = append(points, models.Point{X: w.X + w.Width, Y: w.Y + openingDepth})
	}
	for _, room := range plan.Rooms {
		points = append(points, models.Point{X: room.Bounds.X + room.Bounds.Width, Y: room.Bounds.Y + room.Bounds.Height})
	}

	if len(points) == 0 {
		return defaultCanvas, defaultCanvas
	}

	// the canvas starts at the origin, so only the far corner matters
	box := geometry.Bounds(append(points, models.Point{}))
	width := math.Ceil(box.X+box.Width) + canvasMargin
	height := math.Ceil(box.Y+box.Height) + canvasMargin
	return width, height
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderWalls(walls []models.Wall) []string {
	out := make([]string, 0, len(walls))
	for _, w := range walls {
		out = append(out, fmt.Sprintf(`<line class="wall" x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s" stroke="%s" />`,
			formatFloat(w.StartX), formatFloat(w.StartY), formatFloat(w.EndX), formatFloat(w.EndY),
			formatFloat(w.Thickness), wallStroke))
	}
	return out
}

func (r *Renderer) renderDoors(doors []models.Door) []string {
	out := make([]string, 0, len(doors))
	for _, d := range doors {
		transform := ""
		if d.Rotation != 0 {
			transform = fmt.Sprintf(` transform="rotate(%d)"`, d.Rotation)
		}
		out = append(out, fmt.Sprintf(`<rect class="door" x="%s" y="%s" width="%s" height="%s"%s fill="none" stroke="%s" />`,
			formatFloat(d.X), formatFloat(d.Y), formatFloat(d.Width), formatFloat(openingDepth), transform, doorStroke))
	}
	return out
}

func (r *Renderer) renderWindows(windows []models.Window) []string {
	out := make([]string, 0, len(windows))
	for _, w := range windows {
		out = append(out, fmt.Sprintf(`<rect class="window" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" />`,
			formatFloat(w.X), formatFloat(w.Y), formatFloat(w.Width), formatFloat(openingDepth), windowStroke))
	}
	return out
}

// renderRooms emits every outline before the labels so each label can see
// all candidate boundaries.
func (r *Renderer) renderRooms(rooms []models.Room) []string {
	out := make([]string, 0, 2*len(rooms))

	for _, room := range rooms {
		b := room.Bounds
		corners := []models.Point{
			{X: b.X, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y + b.Height},
			{X: b.X, Y: b.Y + b.Height},
		}
		pts := make([]string, len(corners))
		for i, p := range corners {
			pts[i] = formatPoint(p)
		}
		out = append(out, fmt.Sprintf(`<polygon class="room_%s" points="%s" fill="%s" stroke="%s" />`,
			strings.ToLower(string(room.Type)), strings.Join(pts, " "), roomFill, roomStroke))
	}

	for _, room := range rooms {
		c := geometry.Center(room.Bounds)
		out = append(out, fmt.Sprintf(`<text class="room_label" x="%s" y="%s" font-size="%d" text-anchor="middle">%s</text>`,
			formatFloat(c.X), formatFloat(c.Y), labelFontSize, escape(roomtype.Display(room.Type))))
	}

	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + "," + formatFloat(p.Y)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
