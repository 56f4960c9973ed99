package geometry

import (
	"math"
	"testing"

	"floorplan-service/internal/floorplan/models"
)

func TestParsePoints(t *testing.T) {
	points, err := ParsePoints("0,0 500,0\t500,400\n0,400")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.Point{{0, 0}, {500, 0}, {500, 400}, {0, 400}}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(points))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestParsePoints_Malformed(t *testing.T) {
	for _, input := range []string{"0,0 10", "a,b", "1,2,3", "0,0 10,x"} {
		if _, err := ParsePoints(input); err == nil {
			t.Errorf("ParsePoints(%q): expected error", input)
		}
	}
}

func TestParsePoints_Empty(t *testing.T) {
	points, err := ParsePoints("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %v", points)
	}
}

func TestBounds(t *testing.T) {
	box := Bounds([]models.Point{{10, 20}, {110, 20}, {110, 70}, {10, 70}})
	want := models.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}
	if box != want {
		t.Fatalf("Bounds = %+v, want %+v", box, want)
	}
	if got := Bounds(nil); got != (models.BoundingBox{}) {
		t.Fatalf("Bounds(nil) = %+v, want zero box", got)
	}
}

func TestContains(t *testing.T) {
	box := models.BoundingBox{X: 0, Y: 0, Width: 100, Height: 50}
	tests := []struct {
		p    models.Point
		want bool
	}{
		{models.Point{X: 50, Y: 25}, true},
		{models.Point{X: 0, Y: 0}, true},
		{models.Point{X: 100, Y: 50}, true},
		{models.Point{X: 100.1, Y: 25}, false},
		{models.Point{X: 50, Y: -1}, false},
	}
	for _, tt := range tests {
		if got := Contains(box, tt.p); got != tt.want {
			t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestBoxAround(t *testing.T) {
	box := BoxAround(models.Point{X: 256, Y: 256}, 200)
	want := models.BoundingBox{X: 156, Y: 156, Width: 200, Height: 200}
	if box != want {
		t.Fatalf("BoxAround = %+v, want %+v", box, want)
	}
	if c := Center(box); c != (models.Point{X: 256, Y: 256}) {
		t.Fatalf("Center = %+v", c)
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]models.Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}})
	if math.Abs(c.X-50) > 1e-9 || math.Abs(c.Y-50) > 1e-9 {
		t.Fatalf("Centroid = %+v, want (50,50)", c)
	}

	// collinear vertices have no area
	c = Centroid([]models.Point{{0, 0}, {10, 0}, {20, 0}})
	if math.Abs(c.X-10) > 1e-9 || c.Y != 0 {
		t.Fatalf("degenerate Centroid = %+v, want (10,0)", c)
	}
}

func TestOpenRing(t *testing.T) {
	points := OpenRing([]models.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	if len(points) != 3 {
		t.Fatalf("expected closing vertex to be dropped, got %v", points)
	}
	single := OpenRing([]models.Point{{0, 0}})
	if len(single) != 1 {
		t.Fatalf("single vertex must be kept, got %v", single)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want [][]models.Point
	}{
		{
			name: "absolute closed",
			d:    "M 0 0 L 100 0 L 100 50 Z",
			want: [][]models.Point{{{0, 0}, {100, 0}, {100, 50}, {0, 0}}},
		},
		{
			name: "relative with h and v",
			d:    "m10,10 h20 v30 h-20 z",
			want: [][]models.Point{{{10, 10}, {30, 10}, {30, 40}, {10, 40}, {10, 10}}},
		},
		{
			name: "implicit lineto",
			d:    "M0 0 10 0 10 10",
			want: [][]models.Point{{{0, 0}, {10, 0}, {10, 10}}},
		},
		{
			name: "two subpaths close to their own start",
			d:    "M0 0 H100 V100 Z M200 0 H300 V100 Z",
			want: [][]models.Point{
				{{0, 0}, {100, 0}, {100, 100}, {0, 0}},
				{{200, 0}, {300, 0}, {300, 100}, {200, 0}},
			},
		},
		{
			name: "relative moveto after close",
			d:    "M10 10 h5 v5 z m20 0 h5",
			want: [][]models.Point{
				{{10, 10}, {15, 10}, {15, 15}, {10, 10}},
				{{30, 10}, {35, 10}},
			},
		},
		{
			name: "drawing after close restarts at subpath start",
			d:    "M0 0 L10 0 Z L0 10",
			want: [][]models.Point{
				{{0, 0}, {10, 0}, {0, 0}},
				{{0, 0}, {0, 10}},
			},
		},
		{
			name: "numbers without separators",
			d:    "M10-5L20-5L20 30Z",
			want: [][]models.Point{{{10, -5}, {20, -5}, {20, 30}, {10, -5}}},
		},
		{
			name: "leading dots and exponents",
			d:    "M.5.5L1e1,.5",
			want: [][]models.Point{{{0.5, 0.5}, {10, 0.5}}},
		},
		{
			name: "bare moveto is dropped",
			d:    "M0 0 M5 5 L6 6",
			want: [][]models.Point{{{5, 5}, {6, 6}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("subpath %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("subpath %d point %d = %+v, want %+v", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	inputs := []string{
		"10 10 L 20 20",
		"M0 0 L10",
		"M0 0 L10 0 C1 2 3 4 5 6",
		"M0 0 Lx 5",
		"M0 0 L10 0 1e",
		"M0 0 Z 5",
		"M0 0 H",
	}
	for _, d := range inputs {
		if _, err := ParsePath(d); err == nil {
			t.Errorf("expected error for %q", d)
		}
	}
}

func TestParsePath_Empty(t *testing.T) {
	if _, err := ParsePath(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := ParsePath("Z"); err == nil {
		t.Fatal("expected error for path without vertices")
	}
}
